package model

import (
	"errors"
	"fmt"
)

// ErrorKind はアプリケーションエラーの分類を表す。
// 呼び出し側はKindごとにユーザー向けメッセージを選択する。
type ErrorKind int

const (
	// KindUnexpected は分類不能なエラー。
	KindUnexpected ErrorKind = iota
	// KindNetwork はフェッチ、タイムアウト、DNS、接続拒否などのネットワークエラー。
	KindNetwork
	// KindValidation はURLやアカウントIDの形式不正。I/Oの前に検出される。
	KindValidation
	// KindStoreConflict は一意制約違反 (SQLSTATE 23505)。
	KindStoreConflict
	// KindStoreReference は外部キー制約違反 (SQLSTATE 23503)。
	KindStoreReference
	// KindStoreConfiguration はテーブル未作成や権限不足 (SQLSTATE 42P01, 42501)。
	KindStoreConfiguration
	// KindStoreGeneric はその他のストアエラー。
	KindStoreGeneric
	// KindTransportRejection はチャットへのメッセージ送信が拒否されたエラー。
	KindTransportRejection
)

// String はログ出力用のラベルを返す。
func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindValidation:
		return "validation"
	case KindStoreConflict:
		return "store_conflict"
	case KindStoreReference:
		return "store_reference"
	case KindStoreConfiguration:
		return "store_configuration"
	case KindStoreGeneric:
		return "store_generic"
	case KindTransportRejection:
		return "transport_rejection"
	default:
		return "unexpected"
	}
}

// 分類ごとの詳細コード
const (
	CodeTimeout            = "timeout"
	CodeHostNotFound       = "host_not_found"
	CodeConnectionRefused  = "connection_refused"
	CodeFetchFailed        = "fetch_failed"
	CodeHTTPStatus         = "http_status"
	CodeUnsupportedContent = "unsupported_content"

	CodeInvalidURL       = "invalid_url"
	CodeBlockedURL       = "blocked_url"
	CodeInvalidAccountID = "invalid_account_id"
	CodeRequired         = "required"

	CodeUniqueViolation     = "23505"
	CodeForeignKeyViolation = "23503"
	CodeUndefinedTable      = "42P01"
	CodeInsufficientPriv    = "42501"

	CodeForbidden       = "403"
	CodeBadRequest      = "400"
	CodeTooManyRequests = "429"
)

// AppError は分類済みのアプリケーションエラー。
// Opには発生箇所を示すコンテキストタグ（例: "article-insertion"）を設定する。
type AppError struct {
	Kind ErrorKind
	Op   string
	Code string
	Err  error
}

// NewAppError はAppErrorを生成する。
func NewAppError(kind ErrorKind, op, code string, err error) *AppError {
	return &AppError{Kind: kind, Op: op, Code: code, Err: err}
}

// Error はerrorインターフェースを実装する。
func (e *AppError) Error() string {
	msg := "<nil>"
	if e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Code != "" {
		return fmt.Sprintf("%s: %s [%s]: %s", e.Op, e.Kind, e.Code, msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, msg)
}

// Unwrap は元のエラーを返す。
func (e *AppError) Unwrap() error {
	return e.Err
}

// KindOf はエラーチェーンからAppErrorを探し、その分類を返す。
// AppErrorを含まないエラーはKindUnexpectedとなる。
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnexpected
}

// CodeOf はエラーチェーン内のAppErrorの詳細コードを返す。
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// OpOf はエラーチェーン内のAppErrorのコンテキストタグを返す。
func OpOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Op
	}
	return ""
}
