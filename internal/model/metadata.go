// Package model はドメインモデルを定義する。
package model

// MetadataRecord はHTMLから抽出したメタデータを表す。
// Authors/Topicsは内部では常に非nilのスライスとし、
// 空スライスからNULLへの変換はストレージ境界でのみ行う。
type MetadataRecord struct {
	Title         *string  `json:"title"`
	Description   *string  `json:"description"`
	Language      *string  `json:"language"`
	Authors       []string `json:"authors"`
	Topics        []string `json:"topics"`
	FeaturedImage *string  `json:"featuredImage"`
}

// EmptyMetadata は全フィールドが未設定の正規化済みレコードを返す。
func EmptyMetadata() MetadataRecord {
	return MetadataRecord{
		Authors: []string{},
		Topics:  []string{},
	}
}

// IsEmpty はレコードに何も抽出されていない場合にtrueを返す。
func (m MetadataRecord) IsEmpty() bool {
	return m.Title == nil &&
		m.Description == nil &&
		m.Language == nil &&
		len(m.Authors) == 0 &&
		len(m.Topics) == 0 &&
		m.FeaturedImage == nil
}

// HasTitleOrDescription はタイトルまたは説明のいずれかが存在するかを返す。
func (m MetadataRecord) HasTitleOrDescription() bool {
	return m.Title != nil || m.Description != nil
}

// StringPtr は文字列のポインタを返す。空文字列の場合はnilを返す。
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// StringValue はポインタが指す文字列を返す。nilの場合は空文字列を返す。
func StringValue(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
