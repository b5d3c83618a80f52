package fetch

import (
	"log/slog"
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"

	"github.com/hitoshi/linkshelf/internal/model"
)

// excerptOf はreadabilityで本文を解析し、抜粋を説明文として返す。
// 解析に失敗した場合や抜粋が空の場合はnilを返す。
func (p *Pipeline) excerptOf(body string, pageURL *url.URL) *string {
	article, err := readability.FromReader(strings.NewReader(body), pageURL)
	if err != nil {
		p.logger.Debug("readabilityによる抜粋の抽出に失敗しました",
			slog.String("url", pageURL.String()),
			slog.String("error", err.Error()),
		)
		return nil
	}

	excerpt := article.Excerpt
	if p.sanitizer != nil {
		excerpt = p.sanitizer.StripTags(excerpt)
	}
	return model.StringPtr(strings.TrimSpace(excerpt))
}
