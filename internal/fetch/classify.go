package fetch

import (
	"context"
	"errors"
	"net"
	"syscall"

	"github.com/hitoshi/linkshelf/internal/model"
)

// classifyFetchError は取得時のエラーをネットワーク系の分類済みエラーに変換する。
// 既に分類済みのエラーはそのまま返す。
func classifyFetchError(err error) *model.AppError {
	var appErr *model.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	return model.NewAppError(model.KindNetwork, opFetch, networkCode(err), err)
}

// networkCode はエラーの原因からネットワークエラーの詳細コードを判定する。
func networkCode(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return model.CodeTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return model.CodeTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return model.CodeHostNotFound
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return model.CodeConnectionRefused
	}

	return model.CodeFetchFailed
}
