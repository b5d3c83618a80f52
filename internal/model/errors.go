package model

import "fmt"

// APIError はHTTP APIの統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, metadata, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeMissingURL        = "MISSING_URL"
	ErrCodeInvalidURL        = "INVALID_URL"
	ErrCodeBlockedURL        = "BLOCKED_URL"
	ErrCodeMetadataNotFound  = "METADATA_NOT_FOUND"
	ErrCodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternal          = "INTERNAL_ERROR"
)

// NewMissingURLError はURLパラメータ未指定エラーを生成する。
func NewMissingURLError() *APIError {
	return &APIError{
		Code:     ErrCodeMissingURL,
		Message:  "URL parameter is required",
		Category: "validation",
		Action:   "url クエリパラメータにURLを指定してください。",
	}
}

// NewInvalidURLError は無効なURLエラーを生成する。
func NewInvalidURLError(rawURL string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidURL,
		Message:  fmt.Sprintf("Invalid URL format: %s", rawURL),
		Category: "validation",
		Action:   "http:// または https:// で始まるURLを指定してください。",
	}
}

// NewBlockedURLError は内部ネットワーク宛てなど取得を拒否したURLのエラーを生成する。
func NewBlockedURLError(rawURL string) *APIError {
	return &APIError{
		Code:     ErrCodeBlockedURL,
		Message:  fmt.Sprintf("URL is not allowed: %s", rawURL),
		Category: "validation",
		Action:   "公開されているWebページのURLを指定してください。",
	}
}

// NewMetadataNotFoundError はメタデータ未検出エラーを生成する。
func NewMetadataNotFoundError(rawURL string) *APIError {
	return &APIError{
		Code:     ErrCodeMetadataNotFound,
		Message:  fmt.Sprintf("Could not extract metadata from URL: %s", rawURL),
		Category: "metadata",
		Action:   "ページが公開されているか、URLが正しいかを確認してください。",
	}
}

// NewRateLimitExceededError はレート制限超過エラーを生成する。
func NewRateLimitExceededError() *APIError {
	return &APIError{
		Code:     ErrCodeRateLimitExceeded,
		Message:  "Too many requests. Please try again later.",
		Category: "system",
		Action:   "Retry-Afterヘッダーの秒数だけ待ってから再度お試しください。",
	}
}

// NewInternalError は内部エラーを生成する。
// 詳細はログのみに記録し、レスポンスには一般的なメッセージを返す。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "Internal server error",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
