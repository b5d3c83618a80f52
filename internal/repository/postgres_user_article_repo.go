package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/hitoshi/linkshelf/internal/model"
)

// PostgresUserArticleRepo はPostgreSQLを使用したアカウントと記事の関連リポジトリ。
type PostgresUserArticleRepo struct {
	db DBTX
}

var _ UserArticleRepository = (*PostgresUserArticleRepo)(nil)

// NewPostgresUserArticleRepo はPostgresUserArticleRepoを生成する。
func NewPostgresUserArticleRepo(db DBTX) *PostgresUserArticleRepo {
	return &PostgresUserArticleRepo{db: db}
}

// Upsert は(user_id, article_id)の主キーを利用したINSERT ON CONFLICTで関連を作成する。
// 既存の場合はupdated_atのみ更新し、is_readとadded_atは維持する。
func (r *PostgresUserArticleRepo) Upsert(ctx context.Context, userID, articleID string, now time.Time) (*model.UserArticleRelation, error) {
	relation := &model.UserArticleRelation{}

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO user_articles (user_id, article_id, added_at, updated_at, is_read)
		 VALUES ($1, $2, $3, $3, false)
		 ON CONFLICT (user_id, article_id) DO UPDATE SET
		     updated_at = EXCLUDED.updated_at
		 RETURNING user_id, article_id, added_at, updated_at, is_read`,
		userID, articleID, now,
	).Scan(
		&relation.UserID, &relation.ArticleID,
		&relation.AddedAt, &relation.UpdatedAt, &relation.IsRead,
	)
	if err != nil {
		return nil, fmt.Errorf("記事の関連付けに失敗しました: %w", err)
	}

	return relation, nil
}
