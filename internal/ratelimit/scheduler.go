package ratelimit

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// DefaultCleanupSpec はクリーンアップのデフォルト実行間隔。
const DefaultCleanupSpec = "@every 5m"

// Cleaner は期限切れエントリを削除できるリミッター。
type Cleaner interface {
	Cleanup() int
	Len() int
}

// CleanupScheduler はcronスケジュールでリミッターのクリーンアップを定期実行する。
type CleanupScheduler struct {
	cron    *cron.Cron
	limiter Cleaner
	logger  *slog.Logger

	mu      sync.Mutex
	started bool
}

// NewCleanupScheduler は新しいCleanupSchedulerを生成する。
func NewCleanupScheduler(limiter Cleaner, logger *slog.Logger) *CleanupScheduler {
	return &CleanupScheduler{
		cron:    cron.New(),
		limiter: limiter,
		logger:  logger,
	}
}

// Start はspecで指定したスケジュールでクリーンアップを開始する。
// specはcron式または "@every 5m" 形式の記述子。
func (s *CleanupScheduler) Start(spec string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if _, err := s.cron.AddFunc(spec, s.RunOnce); err != nil {
		return fmt.Errorf("レート制限クリーンアップのスケジュール登録に失敗しました: %w", err)
	}

	s.cron.Start()
	s.started = true
	return nil
}

// Stop はスケジューラを停止し、実行中のジョブの完了を待つ。
func (s *CleanupScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	<-s.cron.Stop().Done()
	s.started = false
}

// RunOnce はクリーンアップを1回実行する。
func (s *CleanupScheduler) RunOnce() {
	removed := s.limiter.Cleanup()
	s.logger.Debug("レート制限エントリをクリーンアップしました",
		slog.Int("removed", removed),
		slog.Int("remaining", s.limiter.Len()),
	)
}
