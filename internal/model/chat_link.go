package model

import "time"

// ChatLink はチャットセッションとアカウントの紐付けを表す。
// チャットIDごとに1件、再リンクによりアカウントごとにも1件に保たれる。
type ChatLink struct {
	ID           string
	AccountID    string
	ChatID       int64
	ChatUsername *string
	LinkedAt     time.Time
}

// LinkOutcome はアカウントリンク処理の結果を表す。
type LinkOutcome int

const (
	// LinkFailed はリンク処理が失敗したことを示す。
	LinkFailed LinkOutcome = iota
	// LinkAlreadyLinked はチャットが既にリンク済みであることを示す。
	LinkAlreadyLinked
	// LinkRelinked は既存のリンクを削除して再リンクしたことを示す。
	LinkRelinked
	// LinkNewlyLinked は新規にリンクしたことを示す。
	LinkNewlyLinked
)

// String はログ出力用のラベルを返す。
func (o LinkOutcome) String() string {
	switch o {
	case LinkAlreadyLinked:
		return "already_linked"
	case LinkRelinked:
		return "relinked"
	case LinkNewlyLinked:
		return "newly_linked"
	default:
		return "failed"
	}
}
