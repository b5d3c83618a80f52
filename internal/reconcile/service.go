// Package reconcile は記事の保存とチャットアカウントの紐付けを調停するサービスを提供する。
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/linkshelf/internal/model"
	"github.com/hitoshi/linkshelf/internal/repository"
	"github.com/hitoshi/linkshelf/internal/urlutil"
)

// ログとエラーに付与するコンテキストタグ
const (
	OpArticleInsertion = "article-insertion"
	OpAccountLinking   = "account-linking"
	OpAccountLookup    = "account-lookup"
)

// Service は記事とアカウント紐付けの調停を行う。
type Service struct {
	tx     repository.Transactor
	links  repository.ChatLinkRepository
	logger *slog.Logger
	now    func() time.Time
}

// Option はServiceの設定を変更する関数。
type Option func(*Service)

// WithClock は現在時刻の取得関数を差し替える。テストで使用する。
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(tx repository.Transactor, links repository.ChatLinkRepository, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		tx:     tx,
		links:  links,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UpsertArticleAndRelation は記事をURLで検索して作成または上書きし、
// アカウントとの関連を冪等に作成する。
// すべての書き込みは1つのトランザクションで行い、失敗時は分類済みエラーを返す。
func (s *Service) UpsertArticleAndRelation(ctx context.Context, data model.ArticleInput, userID string) (*model.Article, *model.UserArticleRelation, error) {
	if userID == "" {
		return nil, nil, model.NewAppError(model.KindValidation, OpArticleInsertion, model.CodeRequired,
			fmt.Errorf("アカウントIDが指定されていません"))
	}
	if !urlutil.IsValidURL(data.URL) {
		return nil, nil, model.NewAppError(model.KindValidation, OpArticleInsertion, model.CodeInvalidURL,
			fmt.Errorf("URLが不正です: %q", data.URL))
	}

	now := s.now()
	var article *model.Article
	var relation *model.UserArticleRelation

	err := s.tx.WithinTx(ctx, func(repos repository.TxRepos) error {
		existing, err := repos.Articles.FindByURL(ctx, data.URL)
		if err != nil {
			return err
		}

		if existing != nil {
			applyInput(existing, data)
			existing.UpdatedAt = now
			if err := repos.Articles.Update(ctx, existing); err != nil {
				return err
			}
			article = existing
		} else {
			created := &model.Article{URL: data.URL, CreatedAt: now, UpdatedAt: now}
			applyInput(created, data)
			if err := repos.Articles.Create(ctx, created); err != nil {
				return err
			}
			article = created
		}

		relation, err = repos.UserArticles.Upsert(ctx, userID, article.ID, now)
		return err
	})
	if err != nil {
		classified := repository.ClassifyError(OpArticleInsertion, err)
		s.logError(OpArticleInsertion, classified, slog.String("url", data.URL), slog.String("user_id", userID))
		return nil, nil, classified
	}

	s.logger.Info("記事を保存しました",
		slog.String("article_id", article.ID),
		slog.String("url", article.URL),
		slog.String("user_id", userID),
	)
	return article, relation, nil
}

// applyInput は入力値で記事のメタデータを上書きする。旧値とのマージは行わない。
func applyInput(article *model.Article, data model.ArticleInput) {
	article.Title = data.Title
	article.Language = data.Language
	article.Authors = nonNil(data.Authors)
	article.Topics = nonNil(data.Topics)
	article.FeaturedImage = data.FeaturedImage
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

// FindOrLinkAccount はチャットをアカウントに紐付ける。
//
// チャットが既に紐付け済みの場合は何も変更せずLinkAlreadyLinkedを返す。
// アカウントが別のチャットに紐付いている場合はそれらを削除してから紐付け、LinkRelinkedを返す。
// 既存の紐付けの削除に失敗してもログを出力して紐付けを続行する。
func (s *Service) FindOrLinkAccount(ctx context.Context, chatID int64, accountID string, chatUsername *string) (model.LinkOutcome, error) {
	if !urlutil.IsValidAccountID(accountID) {
		err := model.NewAppError(model.KindValidation, OpAccountLinking, model.CodeInvalidAccountID,
			fmt.Errorf("アカウントIDの形式が不正です: %q", accountID))
		s.logError(OpAccountLinking, err, slog.Int64("chat_id", chatID))
		return model.LinkFailed, err
	}

	current, err := s.links.FindByChatID(ctx, chatID)
	if err != nil {
		classified := repository.ClassifyError(OpAccountLinking, err)
		s.logError(OpAccountLinking, classified, slog.Int64("chat_id", chatID))
		return model.LinkFailed, classified
	}
	if current != nil {
		return model.LinkAlreadyLinked, nil
	}

	existing, err := s.links.ListByAccountID(ctx, accountID)
	if err != nil {
		classified := repository.ClassifyError(OpAccountLinking, err)
		s.logError(OpAccountLinking, classified, slog.Int64("chat_id", chatID), slog.String("account_id", accountID))
		return model.LinkFailed, classified
	}

	outcome := model.LinkNewlyLinked
	if len(existing) > 0 {
		outcome = model.LinkRelinked
		deleted, err := s.links.DeleteByAccountID(ctx, accountID)
		if err != nil {
			s.logger.Warn("既存のチャット紐付けの削除に失敗しました",
				slog.String("op", OpAccountLinking),
				slog.String("account_id", accountID),
				slog.String("error", err.Error()),
			)
		} else {
			s.logger.Info("既存のチャット紐付けを削除しました",
				slog.String("account_id", accountID),
				slog.Int64("deleted", deleted),
			)
		}
	}

	link := &model.ChatLink{
		AccountID:    accountID,
		ChatID:       chatID,
		ChatUsername: chatUsername,
		LinkedAt:     s.now(),
	}
	if err := s.links.Create(ctx, link); err != nil {
		classified := repository.ClassifyError(OpAccountLinking, err)
		s.logError(OpAccountLinking, classified, slog.Int64("chat_id", chatID), slog.String("account_id", accountID))
		return model.LinkFailed, classified
	}

	s.logger.Info("チャットをアカウントに紐付けました",
		slog.Int64("chat_id", chatID),
		slog.String("account_id", accountID),
		slog.String("outcome", outcome.String()),
	)
	return outcome, nil
}

// AccountForChat はチャットに紐付いたアカウントIDを返す。
// 紐付けがない場合はokがfalseとなる。
func (s *Service) AccountForChat(ctx context.Context, chatID int64) (string, bool, error) {
	link, err := s.links.FindByChatID(ctx, chatID)
	if err != nil {
		classified := repository.ClassifyError(OpAccountLookup, err)
		s.logError(OpAccountLookup, classified, slog.Int64("chat_id", chatID))
		return "", false, classified
	}
	if link == nil {
		return "", false, nil
	}
	return link.AccountID, true, nil
}

// logError は分類済みエラーをコンテキストタグ付きでログ出力する。
func (s *Service) logError(op string, err error, attrs ...any) {
	args := append([]any{
		slog.String("op", op),
		slog.String("kind", model.KindOf(err).String()),
		slog.String("code", model.CodeOf(err)),
		slog.String("error", err.Error()),
	}, attrs...)
	s.logger.Error("処理に失敗しました", args...)
}
