package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/hitoshi/linkshelf/internal/model"
)

// PostgresArticleRepo はPostgreSQLを使用した記事リポジトリ。
type PostgresArticleRepo struct {
	db DBTX
}

var _ ArticleRepository = (*PostgresArticleRepo)(nil)

// NewPostgresArticleRepo はPostgresArticleRepoを生成する。
// dbには*sql.DBまたは*sql.Txを渡す。
func NewPostgresArticleRepo(db DBTX) *PostgresArticleRepo {
	return &PostgresArticleRepo{db: db}
}

// FindByURL はURLの完全一致で記事を検索する。見つからない場合はnilを返す。
// URLの正規化は行わない。
func (r *PostgresArticleRepo) FindByURL(ctx context.Context, url string) (*model.Article, error) {
	article := &model.Article{}
	var title, language, featuredImage sql.NullString
	var authors, topics pq.StringArray

	err := r.db.QueryRowContext(ctx,
		`SELECT id, url, title, language, authors, topics, featured_image, created_at, updated_at
		 FROM articles WHERE url = $1`,
		url,
	).Scan(
		&article.ID, &article.URL, &title, &language,
		&authors, &topics, &featuredImage,
		&article.CreatedAt, &article.UpdatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("記事の取得に失敗しました: %w", err)
	}

	article.Title = stringPtr(title)
	article.Language = stringPtr(language)
	article.FeaturedImage = stringPtr(featuredImage)
	article.Authors = nonNilSlice(authors)
	article.Topics = nonNilSlice(topics)

	return article, nil
}

// Create は新しいIDを採番して記事を作成する。
// 同一URLの記事が並行して作成されていた場合はそちらを上書きし、既存のIDとCreatedAtを返す。
func (r *PostgresArticleRepo) Create(ctx context.Context, article *model.Article) error {
	article.ID = uuid.New().String()

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO articles (id, url, title, language, authors, topics, featured_image, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (url) DO UPDATE SET
		     title = EXCLUDED.title,
		     language = EXCLUDED.language,
		     authors = EXCLUDED.authors,
		     topics = EXCLUDED.topics,
		     featured_image = EXCLUDED.featured_image,
		     updated_at = EXCLUDED.updated_at
		 RETURNING id, created_at`,
		article.ID, article.URL,
		nullableString(article.Title),
		nullableString(article.Language),
		nullableArray(article.Authors),
		nullableArray(article.Topics),
		nullableString(article.FeaturedImage),
		article.CreatedAt, article.UpdatedAt,
	).Scan(&article.ID, &article.CreatedAt)
	if err != nil {
		return fmt.Errorf("記事の作成に失敗しました: %w", err)
	}
	return nil
}

// Update は記事のメタデータを最新の値で上書きする。
// 旧値とのマージは行わない。
func (r *PostgresArticleRepo) Update(ctx context.Context, article *model.Article) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE articles SET
		     title = $2, language = $3, authors = $4, topics = $5,
		     featured_image = $6, updated_at = $7
		 WHERE id = $1`,
		article.ID,
		nullableString(article.Title),
		nullableString(article.Language),
		nullableArray(article.Authors),
		nullableArray(article.Topics),
		nullableString(article.FeaturedImage),
		article.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("記事の更新に失敗しました: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新件数の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("記事 %s: %w", article.ID, ErrNotFound)
	}
	return nil
}
