package repository

import (
	"errors"

	"github.com/lib/pq"

	"github.com/hitoshi/linkshelf/internal/model"
)

// ClassifyError はストア操作のエラーをSQLSTATEコードに基づいて分類する。
// opはエラーの発生箇所を示すコンテキストタグ。errがnilの場合はnilを返す。
// 既に分類済みのエラーはそのまま返す。
func ClassifyError(op string, err error) error {
	if err == nil {
		return nil
	}

	var appErr *model.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return model.NewAppError(model.KindStoreGeneric, op, "", err)
	}

	code := string(pqErr.Code)
	switch code {
	case model.CodeUniqueViolation:
		return model.NewAppError(model.KindStoreConflict, op, code, err)
	case model.CodeForeignKeyViolation:
		return model.NewAppError(model.KindStoreReference, op, code, err)
	case model.CodeUndefinedTable, model.CodeInsufficientPriv:
		return model.NewAppError(model.KindStoreConfiguration, op, code, err)
	default:
		return model.NewAppError(model.KindStoreGeneric, op, code, err)
	}
}
