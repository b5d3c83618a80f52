// Package composer は保存結果をチャットに返す確認メッセージを組み立てる。
package composer

import (
	"strings"

	"github.com/hitoshi/linkshelf/internal/extractor"
	"github.com/hitoshi/linkshelf/internal/model"
)

// MaxDescriptionRunes は説明文の最大文字数。超過分は切り詰めて省略記号を付ける。
const MaxDescriptionRunes = 200

const ellipsis = "..."

// Compose はメタデータとURLから保存確認メッセージを組み立てる。
// 行の順序はタイトル、説明、言語、著者、トピックで固定され、値がない行は出力しない。
func Compose(record model.MetadataRecord, url string) string {
	var b strings.Builder
	b.WriteString("✅ ¡Artículo guardado!\n🔗 URL: ")
	b.WriteString(url)

	if record.Title != nil && *record.Title != "" {
		b.WriteString("\n📝 Título: ")
		b.WriteString(*record.Title)
	}

	if record.Description != nil && *record.Description != "" {
		b.WriteString("\n📄 Descripción: ")
		b.WriteString(Truncate(*record.Description, MaxDescriptionRunes))
	}

	if name := extractor.TranslateLanguage(record.Language); name != nil {
		b.WriteString("\n🌍 Idioma: ")
		b.WriteString(*name)
	}

	if len(record.Authors) > 0 {
		b.WriteString("\n👥 Autor(es): ")
		b.WriteString(strings.Join(record.Authors, ", "))
	}

	if len(record.Topics) > 0 {
		b.WriteString("\n🏷️ Temas: ")
		b.WriteString(strings.Join(record.Topics, ", "))
	}

	return b.String()
}

// Truncate はsを最大limit文字（rune単位）に切り詰める。
// 切り詰めた場合のみ末尾に"..."を付ける。
func Truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + ellipsis
}
