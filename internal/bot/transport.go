// Package bot はチャットボットの会話フローとTelegramトランスポートを提供する。
package bot

import (
	"context"
	"errors"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/hitoshi/linkshelf/internal/model"
)

const opSendMessage = "message-delivery"

// Telegramのキャプション上限（文字数）
const maxCaptionRunes = 1024

// Transport はチャットへのメッセージ送信インターフェース。
type Transport interface {
	SendText(ctx context.Context, chatID int64, text string) error
	SendImage(ctx context.Context, chatID int64, imageURL, caption string) error
}

// Sender はTelegram Bot APIへの送信インターフェース。*tgbotapi.BotAPIが実装する。
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramTransport はTelegram Bot APIを使用するTransport実装。
type TelegramTransport struct {
	sender Sender
}

var _ Transport = (*TelegramTransport)(nil)

// NewTelegramTransport はTelegramTransportを生成する。
func NewTelegramTransport(sender Sender) *TelegramTransport {
	return &TelegramTransport{sender: sender}
}

// SendText はテキストメッセージを送信する。
func (t *TelegramTransport) SendText(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := t.sender.Send(msg); err != nil {
		return classifyTransportError(err)
	}
	return nil
}

// SendImage はURLで指定した画像をキャプション付きで送信する。
// キャプションが上限を超える場合は送信せずエラーを返す。
func (t *TelegramTransport) SendImage(ctx context.Context, chatID int64, imageURL, caption string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len([]rune(caption)) > maxCaptionRunes {
		return model.NewAppError(model.KindTransportRejection, opSendMessage, model.CodeBadRequest,
			errors.New("キャプションが長すぎます"))
	}

	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(imageURL))
	photo.Caption = caption
	if _, err := t.sender.Send(photo); err != nil {
		return classifyTransportError(err)
	}
	return nil
}

// classifyTransportError はTelegram APIのエラーを送信拒否エラーに分類する。
// APIのエラーコード（403、400、429など）を詳細コードとして保持する。
func classifyTransportError(err error) error {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		return model.NewAppError(model.KindTransportRejection, opSendMessage, strconv.Itoa(apiErr.Code), err)
	}
	return model.NewAppError(model.KindTransportRejection, opSendMessage, "", err)
}
