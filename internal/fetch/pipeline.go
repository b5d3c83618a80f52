// Package fetch はURLの取得からメタデータ抽出までのパイプラインを提供する。
//
// 取得に失敗しても戻り値のレコードは常に正しい形をしており、
// 失敗の詳細はerror戻り値（分類済みの*model.AppError）で呼び出し側に伝える。
package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html/charset"

	"github.com/hitoshi/linkshelf/internal/extractor"
	"github.com/hitoshi/linkshelf/internal/metrics"
	"github.com/hitoshi/linkshelf/internal/model"
	"github.com/hitoshi/linkshelf/internal/urlutil"
)

const opFetch = "metadata-extraction"

// デフォルト設定値
const (
	DefaultTimeout     = 15 * time.Second
	DefaultMaxBodySize = 5 * 1024 * 1024
	DefaultUserAgent   = "Mozilla/5.0 (compatible; Linkshelf/1.0)"
)

// URLGuard はSSRF対策のインターフェース。
type URLGuard interface {
	ValidateURL(rawURL string) error
	NewSafeClient(timeout time.Duration) *http.Client
}

// TextSanitizer はHTML断片からタグを除去するインターフェース。
type TextSanitizer interface {
	StripTags(fragment string) string
}

// Config はPipelineの設定。
type Config struct {
	Timeout     time.Duration
	MaxBodySize int64
	UserAgent   string
	// Excerpt がtrueの場合、HTMLから説明文が得られなければreadabilityの抜粋で補う。
	Excerpt bool
}

// Pipeline はURLを取得してメタデータを抽出する。
type Pipeline struct {
	guard       URLGuard
	client      *http.Client
	sanitizer   TextSanitizer
	recorder    metrics.FetchRecorder
	logger      *slog.Logger
	maxBodySize int64
	userAgent   string
	excerpt     bool
}

// NewPipeline はPipelineの新しいインスタンスを生成する。
// HTTPクライアントはguardが生成するSSRF防止付きクライアントを使用する。
func NewPipeline(guard URLGuard, sanitizer TextSanitizer, recorder metrics.FetchRecorder, logger *slog.Logger, cfg Config) *Pipeline {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = DefaultMaxBodySize
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if recorder == nil {
		recorder = metrics.Nop{}
	}

	return &Pipeline{
		guard:       guard,
		client:      guard.NewSafeClient(cfg.Timeout),
		sanitizer:   sanitizer,
		recorder:    recorder,
		logger:      logger,
		maxBodySize: cfg.MaxBodySize,
		userAgent:   cfg.UserAgent,
		excerpt:     cfg.Excerpt,
	}
}

// FetchAndExtract はURLを取得し、本文からメタデータを抽出する。
// 取得に失敗した場合は空のレコードと分類済みエラーを返す。
// レコードは常に正しい形をしているため、エラーを無視して使用してもよい。
func (p *Pipeline) FetchAndExtract(ctx context.Context, rawURL string) (model.MetadataRecord, error) {
	start := time.Now()

	record, source, err := p.fetch(ctx, rawURL)
	p.recorder.RecordFetchLatency(time.Since(start))

	if err != nil {
		appErr := classifyFetchError(err)
		p.recorder.RecordFetchFailure(appErr.Code)
		p.logger.Warn("URLの取得に失敗しました",
			slog.String("url", rawURL),
			slog.String("kind", appErr.Kind.String()),
			slog.String("code", appErr.Code),
			slog.String("error", err.Error()),
		)
		return model.EmptyMetadata(), appErr
	}

	p.recorder.RecordFetchSuccess(source)
	p.logger.Info("メタデータを抽出しました",
		slog.String("url", rawURL),
		slog.String("source", source),
		slog.String("title", model.StringValue(record.Title)),
		slog.Bool("empty", record.IsEmpty()),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
	return record, nil
}

// fetch はHTTP取得と抽出を行い、抽出元の種別（html/feed）を返す。
func (p *Pipeline) fetch(ctx context.Context, rawURL string) (model.MetadataRecord, string, error) {
	if !urlutil.IsValidURL(rawURL) {
		return model.MetadataRecord{}, "", model.NewAppError(model.KindValidation, opFetch, model.CodeInvalidURL,
			fmt.Errorf("URLが不正です: %q", rawURL))
	}
	if err := p.guard.ValidateURL(rawURL); err != nil {
		return model.MetadataRecord{}, "", model.NewAppError(model.KindValidation, opFetch, model.CodeBlockedURL,
			fmt.Errorf("SSRF検証に失敗: %w", err))
	}

	pageURL, err := url.Parse(rawURL)
	if err != nil {
		return model.MetadataRecord{}, "", model.NewAppError(model.KindValidation, opFetch, model.CodeInvalidURL, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return model.MetadataRecord{}, "", fmt.Errorf("リクエスト作成に失敗: %w", err)
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/rss+xml,application/atom+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := p.client.Do(req)
	if err != nil {
		return model.MetadataRecord{}, "", fmt.Errorf("HTTPリクエスト失敗: %w", err)
	}
	defer resp.Body.Close()

	p.recorder.RecordHTTPStatus(resp.StatusCode)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return model.MetadataRecord{}, "", model.NewAppError(model.KindNetwork, opFetch, model.CodeHTTPStatus,
			fmt.Errorf("予期しないHTTPステータス: %d", resp.StatusCode))
	}

	contentType := resp.Header.Get("Content-Type")
	if !isTextContent(contentType) {
		return model.MetadataRecord{}, "", model.NewAppError(model.KindNetwork, opFetch, model.CodeUnsupportedContent,
			fmt.Errorf("テキストではないContent-Type: %s", contentType))
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, p.maxBodySize))
	if err != nil {
		return model.MetadataRecord{}, "", fmt.Errorf("レスポンス読み取り失敗: %w", err)
	}
	// 空の本文は取得成功として扱い、何も抽出しない
	if len(raw) == 0 {
		return extractor.Extract("", rawURL), sourceHTML, nil
	}

	reader, err := charset.NewReader(bytes.NewReader(raw), contentType)
	if err != nil {
		return model.MetadataRecord{}, "", fmt.Errorf("文字コードの判定に失敗: %w", err)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return model.MetadataRecord{}, "", fmt.Errorf("文字コードの変換に失敗: %w", err)
	}
	text := string(body)

	if isFeedDocument(contentType, body) {
		record, err := metadataFromFeed(text, pageURL, p.sanitizer)
		if err == nil {
			return record, sourceFeed, nil
		}
		p.logger.Debug("フィードとして解析できないためHTMLとして扱います",
			slog.String("url", rawURL),
			slog.String("error", err.Error()),
		)
	}

	record := extractor.Extract(text, rawURL)
	if p.excerpt && record.Description == nil {
		record.Description = p.excerptOf(text, pageURL)
	}
	return record, sourceHTML, nil
}

// isTextContent はContent-Typeがテキストとして扱える本文かを判定する。
// Content-Type未指定の場合はテキストとみなす。
func isTextContent(contentType string) bool {
	mediaType := mediaTypeOf(contentType)
	if mediaType == "" {
		return true
	}
	if strings.HasPrefix(mediaType, "text/") {
		return true
	}
	return strings.Contains(mediaType, "html") ||
		strings.Contains(mediaType, "xml") ||
		strings.Contains(mediaType, "json")
}
