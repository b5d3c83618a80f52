package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/hitoshi/linkshelf/internal/model"
)

// PostgresChatLinkRepo はPostgreSQLを使用したチャット紐付けリポジトリ。
// 紐付けはtelegram_usersテーブルに保存する。
type PostgresChatLinkRepo struct {
	db DBTX
}

var _ ChatLinkRepository = (*PostgresChatLinkRepo)(nil)

// NewPostgresChatLinkRepo はPostgresChatLinkRepoを生成する。
func NewPostgresChatLinkRepo(db DBTX) *PostgresChatLinkRepo {
	return &PostgresChatLinkRepo{db: db}
}

// FindByChatID はチャットIDで紐付けを検索する。見つからない場合はnilを返す。
func (r *PostgresChatLinkRepo) FindByChatID(ctx context.Context, chatID int64) (*model.ChatLink, error) {
	link := &model.ChatLink{}
	var username sql.NullString

	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, telegram_chat_id, telegram_username, linked_at
		 FROM telegram_users WHERE telegram_chat_id = $1`,
		chatID,
	).Scan(&link.ID, &link.AccountID, &link.ChatID, &username, &link.LinkedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("チャット紐付けの取得に失敗しました: %w", err)
	}

	link.ChatUsername = stringPtr(username)
	return link, nil
}

// ListByAccountID はアカウントIDに紐づくすべての紐付けをリンク日時順に返す。
func (r *PostgresChatLinkRepo) ListByAccountID(ctx context.Context, accountID string) ([]*model.ChatLink, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, telegram_chat_id, telegram_username, linked_at
		 FROM telegram_users WHERE user_id = $1
		 ORDER BY linked_at`,
		accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("チャット紐付け一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var links []*model.ChatLink
	for rows.Next() {
		link := &model.ChatLink{}
		var username sql.NullString
		if err := rows.Scan(&link.ID, &link.AccountID, &link.ChatID, &username, &link.LinkedAt); err != nil {
			return nil, fmt.Errorf("チャット紐付けのスキャンに失敗しました: %w", err)
		}
		link.ChatUsername = stringPtr(username)
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("チャット紐付け一覧の読み取りに失敗しました: %w", err)
	}

	return links, nil
}

// DeleteByAccountID はアカウントIDに紐づくすべての紐付けを削除し、削除件数を返す。
func (r *PostgresChatLinkRepo) DeleteByAccountID(ctx context.Context, accountID string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM telegram_users WHERE user_id = $1`,
		accountID,
	)
	if err != nil {
		return 0, fmt.Errorf("チャット紐付けの削除に失敗しました: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("削除件数の取得に失敗しました: %w", err)
	}
	return deleted, nil
}

// Create は新しいIDを採番して紐付けを作成する。
// 同一チャットIDの紐付けが存在する場合は一意制約違反となる。
func (r *PostgresChatLinkRepo) Create(ctx context.Context, link *model.ChatLink) error {
	link.ID = uuid.New().String()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO telegram_users (id, user_id, telegram_chat_id, telegram_username, linked_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		link.ID, link.AccountID, link.ChatID, nullableString(link.ChatUsername), link.LinkedAt,
	)
	if err != nil {
		return fmt.Errorf("チャット紐付けの作成に失敗しました: %w", err)
	}
	return nil
}
