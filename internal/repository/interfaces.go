// Package repository はデータ永続化のインターフェースとPostgreSQL実装を提供する。
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/hitoshi/linkshelf/internal/model"
)

// ErrNotFound は更新対象の行が存在しない場合に返される。
var ErrNotFound = errors.New("record not found")

// DBTX は*sql.DBと*sql.Txの共通インターフェース。
// リポジトリはトランザクションの内外どちらでも同じ実装を使用する。
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ArticleRepository は記事データの永続化インターフェース。
type ArticleRepository interface {
	// FindByURL はURLの完全一致で記事を検索する。見つからない場合はnilを返す。
	FindByURL(ctx context.Context, url string) (*model.Article, error)

	// Create は記事を作成し、IDとCreatedAtを設定する。
	Create(ctx context.Context, article *model.Article) error

	// Update は記事のメタデータとUpdatedAtを上書きする。IDとCreatedAtは変更しない。
	Update(ctx context.Context, article *model.Article) error
}

// UserArticleRepository はアカウントと記事の関連の永続化インターフェース。
type UserArticleRepository interface {
	// Upsert は関連を冪等に作成する。
	// 既存の場合はUpdatedAtのみ更新し、IsReadとAddedAtは維持する。
	Upsert(ctx context.Context, userID, articleID string, now time.Time) (*model.UserArticleRelation, error)
}

// ChatLinkRepository はチャットとアカウントの紐付けの永続化インターフェース。
type ChatLinkRepository interface {
	// FindByChatID はチャットIDで紐付けを検索する。見つからない場合はnilを返す。
	FindByChatID(ctx context.Context, chatID int64) (*model.ChatLink, error)

	// ListByAccountID はアカウントIDに紐づくすべての紐付けを返す。
	ListByAccountID(ctx context.Context, accountID string) ([]*model.ChatLink, error)

	// DeleteByAccountID はアカウントIDに紐づくすべての紐付けを削除し、削除件数を返す。
	DeleteByAccountID(ctx context.Context, accountID string) (int64, error)

	// Create は紐付けを作成し、IDを設定する。
	Create(ctx context.Context, link *model.ChatLink) error
}

// TxRepos はトランザクション内で使用するリポジトリの組。
type TxRepos struct {
	Articles     ArticleRepository
	UserArticles UserArticleRepository
}

// Transactor はトランザクション境界を提供するインターフェース。
// fnがエラーを返した場合はロールバックし、そのエラーを返す。
type Transactor interface {
	WithinTx(ctx context.Context, fn func(repos TxRepos) error) error
}
