// Command linkshelf はリンク保存ボットとメタデータ抽出APIを起動する。
//
//	linkshelf serve        メタデータ抽出APIサーバー（デフォルト）
//	linkshelf bot          Telegramボット
//	linkshelf migrate      データベースマイグレーション（up / down [N] / version）
//	linkshelf healthcheck  /healthへの疎通確認
package main

import (
	"fmt"
	"os"

	"github.com/hitoshi/linkshelf/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "linkshelf: %v\n", err)
		os.Exit(1)
	}
}
