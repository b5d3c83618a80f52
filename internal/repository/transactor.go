package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresTransactor は*sql.DBのトランザクションでリポジトリ操作をまとめる。
type PostgresTransactor struct {
	db *sql.DB
}

var _ Transactor = (*PostgresTransactor)(nil)

// NewPostgresTransactor はPostgresTransactorを生成する。
func NewPostgresTransactor(db *sql.DB) *PostgresTransactor {
	return &PostgresTransactor{db: db}
}

// WithinTx はトランザクションを開始し、その中で動作するリポジトリをfnに渡す。
// fnがnilを返した場合はコミットし、エラーを返した場合はロールバックする。
func (t *PostgresTransactor) WithinTx(ctx context.Context, fn func(repos TxRepos) error) error {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	repos := TxRepos{
		Articles:     NewPostgresArticleRepo(tx),
		UserArticles: NewPostgresUserArticleRepo(tx),
	}
	if err := fn(repos); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
