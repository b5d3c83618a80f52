package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer はHTML断片からタグを除去してプレーンテキストを返す。
// フィードやreadabilityの抜粋に含まれるマークアップを取り除くために使用する。
type TextSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer は全タグを除去するbluemondayのstrictポリシーでTextSanitizerを生成する。
func NewTextSanitizer() *TextSanitizer {
	return &TextSanitizer{policy: bluemonday.StrictPolicy()}
}

// StripTags はタグを除去し、エスケープされた文字を戻し、空白を正規化して返す。
// bluemondayはスレッドセーフなため並行呼び出しが可能。
func (s *TextSanitizer) StripTags(fragment string) string {
	if fragment == "" {
		return ""
	}
	stripped := html.UnescapeString(s.policy.Sanitize(fragment))
	return strings.Join(strings.Fields(stripped), " ")
}
