// Package extractor はHTMLテキストからメタデータを抽出する。
//
// DOMパーサーは使わず、生テキストに対する先頭一致の正規表現で抽出する。
// 閉じタグの前に別のタグが始まるような壊れたマークアップでは
// 推測で補完せずnilを返す。これは意図した契約である。
package extractor

import (
	"regexp"
	"strings"

	"github.com/hitoshi/linkshelf/internal/model"
)

var (
	titlePattern    = regexp.MustCompile(`(?i)<title[^>]*>([^<]+)</title>`)
	langPattern     = regexp.MustCompile(`(?i)<html[^>]*lang=["']([^"']+)["']`)
	authorPattern   = regexp.MustCompile(`(?i)<meta[^>]*name=["']author["'][^>]*content=["']([^"']+)["']`)
	keywordsPattern = regexp.MustCompile(`(?i)<meta[^>]*name=["']keywords["'][^>]*content=["']([^"']+)["']`)
)

// Extract はHTMLからメタデータレコードを抽出する。
// baseURLは相対画像URLの解決に使用する。
// 空文字列、空白のみ、HTMLでないテキストの場合は空レコードを返す。
// 同一入力に対して常に同一の結果を返す。
func Extract(html, baseURL string) model.MetadataRecord {
	record := model.EmptyMetadata()
	if strings.TrimSpace(html) == "" {
		return record
	}

	if m := titlePattern.FindStringSubmatch(html); m != nil {
		record.Title = model.StringPtr(strings.TrimSpace(DecodeEntities(m[1])))
	}

	if m := langPattern.FindStringSubmatch(html); m != nil {
		record.Language = model.StringPtr(m[1])
	}

	// 著者はカンマを含むフルネームでも分割せず1件として扱う
	if m := authorPattern.FindStringSubmatch(html); m != nil {
		if author := strings.TrimSpace(DecodeEntities(m[1])); author != "" {
			record.Authors = []string{author}
		}
	}

	if m := keywordsPattern.FindStringSubmatch(html); m != nil {
		record.Topics = splitKeywords(m[1])
	}

	record.FeaturedImage = extractFeaturedImage(html, baseURL)

	return record
}

// splitKeywords はカンマ区切りのキーワードを分割する。
// 各要素はトリム、デコードされ、空要素は除外される。順序は保持する。
func splitKeywords(raw string) []string {
	topics := []string{}
	for _, part := range strings.Split(raw, ",") {
		topic := DecodeEntities(strings.TrimSpace(part))
		if topic == "" {
			continue
		}
		topics = append(topics, topic)
	}
	return topics
}
