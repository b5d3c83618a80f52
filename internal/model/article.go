package model

import "time"

// Article は保存された記事を表す。URLで一意に識別される。
// 同一URLの再投稿時はメタデータが最新のフェッチ結果で上書きされる。
type Article struct {
	ID            string
	URL           string
	Title         *string
	Language      *string
	Authors       []string
	Topics        []string
	FeaturedImage *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ArticleInput は記事のUPSERTに渡す入力データ。
type ArticleInput struct {
	URL           string
	Title         *string
	Language      *string
	Authors       []string
	Topics        []string
	FeaturedImage *string
}

// ArticleInputFromMetadata はメタデータレコードとURLからArticleInputを組み立てる。
// descriptionは記事テーブルに保存しない。
func ArticleInputFromMetadata(url string, m MetadataRecord) ArticleInput {
	return ArticleInput{
		URL:           url,
		Title:         m.Title,
		Language:      m.Language,
		Authors:       m.Authors,
		Topics:        m.Topics,
		FeaturedImage: m.FeaturedImage,
	}
}

// UserArticleRelation はアカウントと記事の多対多の関連を表す。
// (UserID, ArticleID) の組で一意。
type UserArticleRelation struct {
	UserID    string
	ArticleID string
	AddedAt   time.Time
	UpdatedAt time.Time
	IsRead    bool
}
