package extractor

import "strings"

// 言語表示名
const (
	LanguageEnglish = "Inglés"
	LanguageSpanish = "Castellano"
)

// TranslateLanguage は言語タグを表示名に変換する。
// "en"で始まるタグは英語、"es"で始まるタグはスペイン語の表示名になり、
// それ以外のタグはそのまま返す。nilまたは空文字列の場合はnilを返す。
func TranslateLanguage(lang *string) *string {
	if lang == nil || *lang == "" {
		return nil
	}

	lower := strings.ToLower(*lang)
	var name string
	switch {
	case strings.HasPrefix(lower, "en"):
		name = LanguageEnglish
	case strings.HasPrefix(lower, "es"):
		name = LanguageSpanish
	default:
		name = *lang
	}
	return &name
}
