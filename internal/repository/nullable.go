package repository

import (
	"database/sql"

	"github.com/lib/pq"
)

// nullableString は*stringをsql.NullStringに変換する。
func nullableString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// stringPtr はsql.NullStringを*stringに変換する。NULLの場合はnilを返す。
func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// nullableArray は文字列スライスをtext[]パラメータに変換する。
// 空スライスはNULLとして保存する。
func nullableArray(values []string) any {
	if len(values) == 0 {
		return nil
	}
	return pq.Array(values)
}

// nonNilSlice はNULLから読み出したnilスライスを空スライスに変換する。
func nonNilSlice(values pq.StringArray) []string {
	if values == nil {
		return []string{}
	}
	return []string(values)
}
