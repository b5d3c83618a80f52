package bot

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// mockUpdateSource はテスト用のUpdateSource実装。
type mockUpdateSource struct {
	ch      chan tgbotapi.Update
	mu      sync.Mutex
	config  tgbotapi.UpdateConfig
	stopped bool
}

func newMockUpdateSource(buffer int) *mockUpdateSource {
	return &mockUpdateSource{ch: make(chan tgbotapi.Update, buffer)}
}

func (m *mockUpdateSource) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.config = config
	return m.ch
}

func (m *mockUpdateSource) StopReceivingUpdates() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
}

// recordingHandler は受信メッセージを記録するMessageHandler実装。
type recordingHandler struct {
	mu       sync.Mutex
	messages []Message
	delay    time.Duration
	running  atomic.Int32
	peak     atomic.Int32
	panicOn  string
}

func (h *recordingHandler) Handle(_ context.Context, msg Message) {
	n := h.running.Add(1)
	defer h.running.Add(-1)
	for {
		p := h.peak.Load()
		if n <= p || h.peak.CompareAndSwap(p, n) {
			break
		}
	}

	if msg.Text == h.panicOn {
		panic("boom")
	}
	if h.delay > 0 {
		time.Sleep(h.delay)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, msg)
}

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.messages)
}

func textUpdate(id int, chatID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{
		UpdateID: id,
		Message: &tgbotapi.Message{
			Chat: &tgbotapi.Chat{ID: chatID},
			From: &tgbotapi.User{UserName: "ana"},
			Text: text,
		},
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestPoller_DispatchesMessages はテキスト更新をすべてハンドラに渡すことをテストする。
func TestPoller_DispatchesMessages(t *testing.T) {
	source := newMockUpdateSource(10)
	handler := &recordingHandler{}
	p := NewPoller(source, handler, testLogger(), 2)

	for i := 1; i <= 5; i++ {
		source.ch <- textUpdate(i, int64(i), "https://example.com")
	}
	source.ch <- tgbotapi.Update{UpdateID: 6}
	close(source.ch)

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got := handler.count(); got != 5 {
		t.Errorf("handled = %d, want 5", got)
	}
	if !source.stopped {
		t.Error("StopReceivingUpdates was not called")
	}
	if source.config.Timeout != updateTimeoutSeconds {
		t.Errorf("Timeout = %d, want %d", source.config.Timeout, updateTimeoutSeconds)
	}
}

// TestPoller_LimitsConcurrency は同時処理数が上限を超えないことをテストする。
func TestPoller_LimitsConcurrency(t *testing.T) {
	source := newMockUpdateSource(20)
	handler := &recordingHandler{delay: 20 * time.Millisecond}
	p := NewPoller(source, handler, testLogger(), 3)

	for i := 1; i <= 12; i++ {
		source.ch <- textUpdate(i, int64(i), "hola")
	}
	close(source.ch)

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got := handler.peak.Load(); got > 3 {
		t.Errorf("peak concurrency = %d, want <= 3", got)
	}
	if got := handler.count(); got != 12 {
		t.Errorf("handled = %d, want 12", got)
	}
}

// TestPoller_StopsOnCancel はコンテキストのキャンセルで処理中の完了を待って停止することをテストする。
func TestPoller_StopsOnCancel(t *testing.T) {
	source := newMockUpdateSource(1)
	handler := &recordingHandler{delay: 50 * time.Millisecond}
	p := NewPoller(source, handler, testLogger(), 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	source.ch <- textUpdate(1, 1, "hola")
	deadline := time.Now().Add(time.Second)
	for handler.running.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}

	if got := handler.count(); got != 1 {
		t.Errorf("handled = %d, want 1 (in-flight message completed)", got)
	}
}

// TestPoller_RecoversPanic はハンドラのpanicで他のメッセージ処理が止まらないことをテストする。
func TestPoller_RecoversPanic(t *testing.T) {
	source := newMockUpdateSource(3)
	handler := &recordingHandler{panicOn: "boom"}
	p := NewPoller(source, handler, testLogger(), 1)

	source.ch <- textUpdate(1, 1, "boom")
	source.ch <- textUpdate(2, 2, "ok")
	close(source.ch)

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := handler.count(); got != 1 {
		t.Errorf("handled = %d, want 1", got)
	}
}

// TestNewPoller_DefaultConcurrency は上限未指定時にデフォルト値を使うことをテストする。
func TestNewPoller_DefaultConcurrency(t *testing.T) {
	p := NewPoller(newMockUpdateSource(0), &recordingHandler{}, testLogger(), 0)
	if p.maxConcurrent != DefaultMaxConcurrent {
		t.Errorf("maxConcurrent = %d, want %d", p.maxConcurrent, DefaultMaxConcurrent)
	}
}

// TestMessageFromUpdate は更新からメッセージへの変換をテストする。
func TestMessageFromUpdate(t *testing.T) {
	t.Run("テキストメッセージ", func(t *testing.T) {
		msg, ok := messageFromUpdate(textUpdate(1, 99, "hola"))
		if !ok {
			t.Fatal("ok = false, want true")
		}
		if msg.ChatID != 99 || msg.Text != "hola" {
			t.Errorf("msg = %+v, want chat 99 text hola", msg)
		}
		if msg.Username == nil || *msg.Username != "ana" {
			t.Errorf("Username = %v, want ana", msg.Username)
		}
	})

	t.Run("ユーザー名なし", func(t *testing.T) {
		u := textUpdate(1, 99, "hola")
		u.Message.From = &tgbotapi.User{}
		msg, ok := messageFromUpdate(u)
		if !ok {
			t.Fatal("ok = false, want true")
		}
		if msg.Username != nil {
			t.Errorf("Username = %v, want nil", *msg.Username)
		}
	})

	t.Run("メッセージなし", func(t *testing.T) {
		if _, ok := messageFromUpdate(tgbotapi.Update{UpdateID: 1}); ok {
			t.Error("ok = true, want false")
		}
	})

	t.Run("テキストなし", func(t *testing.T) {
		u := textUpdate(1, 99, "")
		if _, ok := messageFromUpdate(u); ok {
			t.Error("ok = true, want false")
		}
	})
}
