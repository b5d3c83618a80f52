package fetch

import (
	"fmt"
	"mime"
	"net/url"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/hitoshi/linkshelf/internal/model"
)

// 抽出元の種別
const (
	sourceHTML = "html"
	sourceFeed = "feed"
)

// feedContentTypes はフィードとして直接判定するContent-Type。
var feedContentTypes = []string{
	"application/rss+xml",
	"application/atom+xml",
}

// xmlContentTypes はボディ解析でフィードか判定する汎用XMLのContent-Type。
var xmlContentTypes = []string{
	"text/xml",
	"application/xml",
}

// mediaTypeOf はContent-Typeからcharsetなどのパラメータを除いたメディアタイプを返す。
func mediaTypeOf(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.TrimSpace(strings.Split(contentType, ";")[0])
	}
	return strings.ToLower(mediaType)
}

// isFeedDocument はレスポンスがRSS/Atomフィードかを判定する。
func isFeedDocument(contentType string, body []byte) bool {
	mediaType := mediaTypeOf(contentType)

	for _, ct := range feedContentTypes {
		if mediaType == ct {
			return true
		}
	}

	for _, ct := range xmlContentTypes {
		if mediaType == ct {
			return looksLikeFeed(body)
		}
	}
	return false
}

// looksLikeFeed はXMLボディの先頭4KBからRSS/Atomのルート要素を探す。
func looksLikeFeed(body []byte) bool {
	n := len(body)
	if n > 4096 {
		n = 4096
	}
	prefix := strings.ToLower(string(body[:n]))

	if strings.Contains(prefix, "<rss") || strings.Contains(prefix, "<rdf:rdf") {
		return true
	}
	return strings.Contains(prefix, "<feed") && strings.Contains(prefix, "http://www.w3.org/2005/atom")
}

// metadataFromFeed はgofeedでフィードを解析し、チャンネル情報からメタデータを組み立てる。
// 説明文はタグを除去する。カテゴリはトピックとして扱う。
func metadataFromFeed(body string, feedURL *url.URL, sanitizer TextSanitizer) (model.MetadataRecord, error) {
	feed, err := gofeed.NewParser().ParseString(body)
	if err != nil {
		return model.MetadataRecord{}, fmt.Errorf("フィードのパースに失敗: %w", err)
	}

	record := model.EmptyMetadata()
	record.Title = model.StringPtr(strings.TrimSpace(feed.Title))
	record.Language = model.StringPtr(strings.TrimSpace(feed.Language))
	if sanitizer != nil {
		record.Description = model.StringPtr(sanitizer.StripTags(feed.Description))
	}

	// HTMLのauthorメタタグと同様に著者は1名のみ採用する
	for _, author := range feed.Authors {
		if author == nil {
			continue
		}
		if name := strings.TrimSpace(author.Name); name != "" {
			record.Authors = append(record.Authors, name)
			break
		}
	}

	for _, category := range feed.Categories {
		if c := strings.TrimSpace(category); c != "" {
			record.Topics = append(record.Topics, c)
		}
	}

	if feed.Image != nil && feed.Image.URL != "" {
		image := resolveAgainst(feedURL, feed.Image.URL)
		record.FeaturedImage = &image
	}

	return record, nil
}

// resolveAgainst はrefをbase基準で絶対URLに解決する。解決できない場合はrefをそのまま返す。
func resolveAgainst(base *url.URL, ref string) string {
	refURL, err := url.Parse(ref)
	if err != nil || base == nil {
		return ref
	}
	return base.ResolveReference(refURL).String()
}
