// Package ratelimit はアカウント単位のスライディングウィンドウ方式のレート制限を提供する。
//
// 状態はプロセス内のメモリのみに保持し、再起動で失われる。
package ratelimit

import (
	"sync"
	"time"
)

// デフォルトの制限値: 60秒間に5件
const (
	DefaultLimit  = 5
	DefaultWindow = 60 * time.Second
)

// Decision はレート制限の判定結果を表す。
// 拒否された場合のみRetryAfterに次の枠が空くまでの時間が設定される。
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// Limiter はレート制限判定のインターフェース。
// 複数インスタンス構成では外部ストアを使う実装に差し替えられる。
type Limiter interface {
	Check(identity string) Decision
}

// SlidingWindow はidentityごとに直近の受付時刻を保持するスライディングウィンドウ方式のリミッター。
// 判定は「現在時刻」を基準に毎回計算され、固定バケットには揃えない。
type SlidingWindow struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	entries map[string][]time.Time
}

var _ Limiter = (*SlidingWindow)(nil)

// Option はSlidingWindowの生成オプション。
type Option func(*SlidingWindow)

// WithClock は現在時刻の取得関数を差し替える。テスト用。
func WithClock(now func() time.Time) Option {
	return func(s *SlidingWindow) {
		s.now = now
	}
}

// NewSlidingWindow は新しいSlidingWindowを生成する。
// limitまたはwindowが0以下の場合はデフォルト値を使用する。
func NewSlidingWindow(limit int, window time.Duration, opts ...Option) *SlidingWindow {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}

	s := &SlidingWindow{
		limit:   limit,
		window:  window,
		now:     time.Now,
		entries: make(map[string][]time.Time),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Check はidentityの受付可否を判定する。
// ウィンドウ外の時刻を破棄し、残りがlimit以上なら拒否して
// 最古の時刻がウィンドウから外れるまでの時間を返す。
// 受付時は現在時刻を記録する。判定と記録は1つのロック内で行う。
func (s *SlidingWindow) Check(identity string) Decision {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	recent := s.recentLocked(identity, now)

	if len(recent) >= s.limit {
		s.entries[identity] = recent
		return Decision{
			Allowed:    false,
			RetryAfter: s.window - now.Sub(recent[0]),
		}
	}

	s.entries[identity] = append(recent, now)
	return Decision{Allowed: true}
}

// Cleanup はウィンドウ内に受付時刻が残っていないidentityを削除する。
// 正しさには不要で、長期稼働時のメモリ使用量を抑えるために定期実行する。
// 削除したidentity数を返す。
func (s *SlidingWindow) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for identity := range s.entries {
		recent := s.recentLocked(identity, now)
		if len(recent) == 0 {
			delete(s.entries, identity)
			removed++
			continue
		}
		s.entries[identity] = recent
	}
	return removed
}

// Len は現在保持しているidentity数を返す。
// テストおよびメトリクス用。
func (s *SlidingWindow) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// recentLocked はウィンドウ内の受付時刻のみを返す。s.muを保持して呼び出すこと。
func (s *SlidingWindow) recentLocked(identity string, now time.Time) []time.Time {
	timestamps := s.entries[identity]
	recent := timestamps[:0]
	for _, ts := range timestamps {
		if now.Sub(ts) < s.window {
			recent = append(recent, ts)
		}
	}
	return recent
}
