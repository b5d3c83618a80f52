package bot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/linkshelf/internal/composer"
	"github.com/hitoshi/linkshelf/internal/metrics"
	"github.com/hitoshi/linkshelf/internal/model"
	"github.com/hitoshi/linkshelf/internal/ratelimit"
	"github.com/hitoshi/linkshelf/internal/urlutil"
)

const opURLValidation = "url-validation"

// Message はトランスポートから受信したテキストメッセージ。
type Message struct {
	ChatID   int64
	Text     string
	Username *string
}

// Fetcher はURLからメタデータを取得するインターフェース。
type Fetcher interface {
	FetchAndExtract(ctx context.Context, rawURL string) (model.MetadataRecord, error)
}

// Reconciler は記事の保存とアカウント紐付けのインターフェース。
type Reconciler interface {
	UpsertArticleAndRelation(ctx context.Context, data model.ArticleInput, userID string) (*model.Article, *model.UserArticleRelation, error)
	FindOrLinkAccount(ctx context.Context, chatID int64, accountID string, chatUsername *string) (model.LinkOutcome, error)
	AccountForChat(ctx context.Context, chatID int64) (string, bool, error)
}

// HandlerConfig はHandlerの設定。
type HandlerConfig struct {
	// SendImage がtrueの場合、アイキャッチ画像があれば確認メッセージを画像のキャプションとして送る。
	SendImage bool
}

// Handler はチャットメッセージを処理し、応答を送信する。
type Handler struct {
	transport  Transport
	fetcher    Fetcher
	reconciler Reconciler
	limiter    ratelimit.Limiter
	recorder   metrics.BotRecorder
	logger     *slog.Logger
	sendImage  bool
}

// NewHandler はHandlerの新しいインスタンスを生成する。
func NewHandler(
	transport Transport,
	fetcher Fetcher,
	reconciler Reconciler,
	limiter ratelimit.Limiter,
	recorder metrics.BotRecorder,
	logger *slog.Logger,
	cfg HandlerConfig,
) *Handler {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &Handler{
		transport:  transport,
		fetcher:    fetcher,
		reconciler: reconciler,
		limiter:    limiter,
		recorder:   recorder,
		logger:     logger,
		sendImage:  cfg.SendImage,
	}
}

// Handle は1件のメッセージを処理する。
// /startコマンドはアカウント紐付け、それ以外は記事の保存として扱う。
func (h *Handler) Handle(ctx context.Context, msg Message) {
	h.logger.Debug("メッセージを受信しました",
		slog.Int64("chat_id", msg.ChatID),
		slog.Bool("has_link", urlutil.IsLinkMessage(msg.Text)),
	)

	if urlutil.IsStartCommand(msg.Text) {
		h.handleStart(ctx, msg)
		return
	}
	h.handleLink(ctx, msg)
}

// handleStart は"/start <accountID>"によるアカウント紐付けを処理する。
func (h *Handler) handleStart(ctx context.Context, msg Message) {
	accountID, ok := urlutil.ParseStartCommand(msg.Text)
	if !ok {
		h.reply(ctx, msg.ChatID, MsgStartWithoutAccount)
		return
	}

	outcome, err := h.reconciler.FindOrLinkAccount(ctx, msg.ChatID, accountID, msg.Username)
	h.recorder.RecordLinkOutcome(outcome.String())
	if err != nil {
		h.replyError(ctx, msg.ChatID, err)
		return
	}

	switch outcome {
	case model.LinkAlreadyLinked:
		h.reply(ctx, msg.ChatID, MsgAlreadyLinked)
	case model.LinkRelinked:
		h.reply(ctx, msg.ChatID, MsgRelinked)
	case model.LinkNewlyLinked:
		h.reply(ctx, msg.ChatID, MsgNewlyLinked)
	case model.LinkFailed:
		h.reply(ctx, msg.ChatID, MsgUnexpected)
	}
}

// handleLink はリンクの保存を処理する。
// 紐付け確認、URL抽出、レート制限、メタデータ取得、保存、確認メッセージの順に行う。
func (h *Handler) handleLink(ctx context.Context, msg Message) {
	accountID, linked, err := h.reconciler.AccountForChat(ctx, msg.ChatID)
	if err != nil {
		h.replyError(ctx, msg.ChatID, err)
		return
	}
	if !linked {
		h.reply(ctx, msg.ChatID, MsgNotLinked)
		return
	}

	rawURL, ok := urlutil.ExtractFirstURL(msg.Text)
	if !ok {
		h.reply(ctx, msg.ChatID, MsgSendLink)
		return
	}

	decision := h.limiter.Check(accountID)
	if !decision.Allowed {
		h.recorder.RecordRateLimited()
		h.logger.Info("レート制限により投稿を拒否しました",
			slog.String("account_id", accountID),
			slog.Duration("retry_after", decision.RetryAfter),
		)
		h.reply(ctx, msg.ChatID, RateLimitMessage(decision.RetryAfter))
		return
	}

	if !urlutil.IsValidURL(rawURL) {
		h.replyError(ctx, msg.ChatID, model.NewAppError(model.KindValidation, opURLValidation, model.CodeInvalidURL,
			fmt.Errorf("URLが不正です: %q", rawURL)))
		return
	}

	// 取得失敗は空のメタデータとして扱い、保存は続行する。
	// ただし宛先が拒否されたURLは保存しない。
	record, fetchErr := h.fetcher.FetchAndExtract(ctx, rawURL)
	if fetchErr != nil && model.KindOf(fetchErr) == model.KindValidation {
		h.replyError(ctx, msg.ChatID, fetchErr)
		return
	}

	_, _, err = h.reconciler.UpsertArticleAndRelation(ctx, model.ArticleInputFromMetadata(rawURL, record), accountID)
	if err != nil {
		h.replyError(ctx, msg.ChatID, err)
		return
	}
	h.recorder.RecordArticleSaved()

	h.confirm(ctx, msg.ChatID, rawURL, record)
}

// confirm は保存確認メッセージを送信する。
// 画像送信が有効で画像の送信に失敗した場合はテキストで送り直す。
func (h *Handler) confirm(ctx context.Context, chatID int64, rawURL string, record model.MetadataRecord) {
	text := composer.Compose(record, rawURL)

	if h.sendImage && record.FeaturedImage != nil {
		err := h.transport.SendImage(ctx, chatID, *record.FeaturedImage, text)
		if err == nil {
			return
		}
		h.logger.Warn("画像付き確認メッセージの送信に失敗したためテキストで送信します",
			slog.Int64("chat_id", chatID),
			slog.String("code", model.CodeOf(err)),
			slog.String("error", err.Error()),
		)
	}

	h.reply(ctx, chatID, text)
}

// replyError はエラーをログに記録し、分類に応じたメッセージを送信する。
func (h *Handler) replyError(ctx context.Context, chatID int64, err error) {
	kind := model.KindOf(err)
	h.recorder.RecordError(kind.String())
	h.logger.Error("メッセージ処理に失敗しました",
		slog.Int64("chat_id", chatID),
		slog.String("op", model.OpOf(err)),
		slog.String("kind", kind.String()),
		slog.String("code", model.CodeOf(err)),
		slog.String("error", err.Error()),
	)
	h.reply(ctx, chatID, UserMessage(err))
}

// reply はテキストを送信する。送信失敗はログに記録するのみで、再送はしない。
func (h *Handler) reply(ctx context.Context, chatID int64, text string) {
	if err := h.transport.SendText(ctx, chatID, text); err != nil {
		h.recorder.RecordError(model.KindOf(err).String())
		h.logger.Error("メッセージの送信に失敗しました",
			slog.Int64("chat_id", chatID),
			slog.String("kind", model.KindOf(err).String()),
			slog.String("code", model.CodeOf(err)),
			slog.String("user_message", UserMessage(err)),
			slog.String("error", err.Error()),
		)
	}
}
