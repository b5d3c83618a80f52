// Package urlutil はURLの検証とテキストからのURL抽出を提供する。
package urlutil

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	// firstURLPattern はテキスト中のhttp/https URLトークンにマッチする。
	// 空白と文字クラス外の記号（引用符 " や < > など）でトークンが終わる。
	firstURLPattern = regexp.MustCompile(`(?i)(https?://[\w\-./?#&=;%+~:@!$'()*\[\],]+)`)

	startCommandPattern = regexp.MustCompile(`^/start(?:\s+)?([a-zA-Z0-9-]+)?`)
	accountIDPattern    = regexp.MustCompile(`^[a-zA-Z0-9-]{1,255}$`)
)

// IsValidURL はsがスキームhttpまたはhttpsの絶対URLとして解析できる場合にtrueを返す。
func IsValidURL(s string) bool {
	if s == "" {
		return false
	}

	u, err := url.Parse(s)
	if err != nil {
		return false
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}

	return u.Host != ""
}

// ExtractFirstURL はテキストから最初（最も左）のhttp/https URLを抽出する。
// URLが見つからない場合は空文字列とfalseを返す。
func ExtractFirstURL(text string) (string, bool) {
	if text == "" {
		return "", false
	}

	m := firstURLPattern.FindString(text)
	if m == "" {
		return "", false
	}
	return m, true
}

// IsLinkMessage はテキストにURLが含まれるかを判定する。
func IsLinkMessage(text string) bool {
	_, ok := ExtractFirstURL(text)
	return ok
}

// ParseStartCommand は "/start <accountID>" 形式のコマンドからアカウントIDを取り出す。
// /startコマンドでない場合、またはIDが付与されていない場合はfalseを返す。
func ParseStartCommand(text string) (string, bool) {
	m := startCommandPattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil || m[1] == "" {
		return "", false
	}
	return m[1], true
}

// IsStartCommand はテキストが/startコマンドかどうかを判定する。
func IsStartCommand(text string) bool {
	return startCommandPattern.MatchString(strings.TrimSpace(text))
}

// MaxAccountIDLength はアカウントIDの最大文字数。保存先カラムの長さと一致させる。
const MaxAccountIDLength = 255

// IsValidAccountID はアカウントIDが英数字とハイフンのみで構成され、
// MaxAccountIDLength文字以内であるかを検証する。
func IsValidAccountID(id string) bool {
	return accountIDPattern.MatchString(id)
}
