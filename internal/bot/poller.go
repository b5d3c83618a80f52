package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ロングポーリングのタイムアウト（秒）
const updateTimeoutSeconds = 60

// DefaultMaxConcurrent は同時に処理するメッセージ数のデフォルト値。
const DefaultMaxConcurrent = 8

// UpdateSource はTelegramの更新を受信するインターフェース。*tgbotapi.BotAPIが実装する。
type UpdateSource interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// MessageHandler は受信メッセージを処理するインターフェース。
type MessageHandler interface {
	Handle(ctx context.Context, msg Message)
}

// Poller はTelegramの更新を受信し、メッセージをハンドラに振り分ける。
// semaphoreパターンで同時処理数を制御する。
type Poller struct {
	source        UpdateSource
	handler       MessageHandler
	logger        *slog.Logger
	maxConcurrent int
}

// NewPoller はPollerの新しいインスタンスを生成する。
// maxConcurrentが0以下の場合はDefaultMaxConcurrentを使用する。
func NewPoller(source UpdateSource, handler MessageHandler, logger *slog.Logger, maxConcurrent int) *Poller {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	return &Poller{
		source:        source,
		handler:       handler,
		logger:        logger,
		maxConcurrent: maxConcurrent,
	}
}

// Run はコンテキストがキャンセルされるか更新チャネルが閉じられるまで更新を処理する。
// 停止時は処理中のメッセージの完了を待ってから戻る。
func (p *Poller) Run(ctx context.Context) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = updateTimeoutSeconds
	updates := p.source.GetUpdatesChan(cfg)

	p.logger.Info("ボットの更新受信を開始しました",
		slog.Int("max_concurrent", p.maxConcurrent),
	)

	// 処理中のメッセージは停止シグナルで中断しない
	handlerCtx := context.WithoutCancel(ctx)

	sem := make(chan struct{}, p.maxConcurrent)
	var wg sync.WaitGroup

	defer func() {
		p.source.StopReceivingUpdates()
		wg.Wait()
		p.logger.Info("ボットの更新受信を停止しました")
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			msg, ok := messageFromUpdate(update)
			if !ok {
				continue
			}

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return nil
			}

			wg.Add(1)
			go func(m Message) {
				defer wg.Done()
				defer func() { <-sem }()
				p.dispatch(handlerCtx, m)
			}(msg)
		}
	}
}

// dispatch はハンドラを呼び出し、panicを回復してログに記録する。
func (p *Poller) dispatch(ctx context.Context, msg Message) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("メッセージ処理中にpanicが発生しました",
				slog.Int64("chat_id", msg.ChatID),
				slog.String("panic", fmt.Sprintf("%v", r)),
			)
		}
	}()
	p.handler.Handle(ctx, msg)
}

// messageFromUpdate はテキストメッセージを含む更新をMessageに変換する。
// テキストのない更新（スタンプ、編集、コールバックなど）はfalseを返す。
func messageFromUpdate(update tgbotapi.Update) (Message, bool) {
	if update.Message == nil || update.Message.Chat == nil || update.Message.Text == "" {
		return Message{}, false
	}

	msg := Message{
		ChatID: update.Message.Chat.ID,
		Text:   update.Message.Text,
	}
	if from := update.Message.From; from != nil && from.UserName != "" {
		username := from.UserName
		msg.Username = &username
	}
	return msg, true
}
