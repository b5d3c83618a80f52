// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// FetchRecorder はフェッチパイプラインが使用するメトリクス記録のインターフェース。
type FetchRecorder interface {
	RecordFetchSuccess(source string)
	RecordFetchFailure(reason string)
	RecordHTTPStatus(statusCode int)
	RecordFetchLatency(duration time.Duration)
}

// BotRecorder はボットの処理が使用するメトリクス記録のインターフェース。
type BotRecorder interface {
	RecordArticleSaved()
	RecordRateLimited()
	RecordLinkOutcome(outcome string)
	RecordError(kind string)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	fetchSuccess  *prometheus.CounterVec
	fetchFail     *prometheus.CounterVec
	httpStatus    *prometheus.CounterVec
	fetchLatency  prometheus.Histogram
	articlesSaved prometheus.Counter
	rateLimited   prometheus.Counter
	linkOutcomes  *prometheus.CounterVec
	errors        *prometheus.CounterVec
}

var (
	_ FetchRecorder = (*Collector)(nil)
	_ BotRecorder   = (*Collector)(nil)
)

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		fetchSuccess: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "linkshelf_fetch_success_total",
			Help: "メタデータ取得に成功したフェッチの合計数（html/feed別）",
		}, []string{"source"}),
		fetchFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "linkshelf_fetch_fail_total",
			Help: "失敗したフェッチの合計数（理由別）",
		}, []string{"reason"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "linkshelf_fetch_http_status_total",
			Help: "フェッチ先のHTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		fetchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "linkshelf_fetch_latency_seconds",
			Help:    "フェッチのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		articlesSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "linkshelf_articles_saved_total",
			Help: "保存（作成または更新）された記事の合計数",
		}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "linkshelf_rate_limited_total",
			Help: "レート制限により拒否された投稿の合計数",
		}),
		linkOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "linkshelf_account_link_total",
			Help: "アカウントリンク処理の結果別の合計数",
		}, []string{"outcome"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "linkshelf_errors_total",
			Help: "ユーザーに通知したエラーの分類別の合計数",
		}, []string{"kind"}),
	}

	reg.MustRegister(
		c.fetchSuccess,
		c.fetchFail,
		c.httpStatus,
		c.fetchLatency,
		c.articlesSaved,
		c.rateLimited,
		c.linkOutcomes,
		c.errors,
	)

	return c
}

// RecordFetchSuccess はフェッチ成功を記録する。
func (c *Collector) RecordFetchSuccess(source string) {
	c.fetchSuccess.WithLabelValues(source).Inc()
}

// RecordFetchFailure はフェッチ失敗を記録する。
func (c *Collector) RecordFetchFailure(reason string) {
	c.fetchFail.WithLabelValues(reason).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordFetchLatency はフェッチのレイテンシを記録する。
func (c *Collector) RecordFetchLatency(duration time.Duration) {
	c.fetchLatency.Observe(duration.Seconds())
}

// RecordArticleSaved は記事の保存を記録する。
func (c *Collector) RecordArticleSaved() {
	c.articlesSaved.Inc()
}

// RecordRateLimited はレート制限による拒否を記録する。
func (c *Collector) RecordRateLimited() {
	c.rateLimited.Inc()
}

// RecordLinkOutcome はアカウントリンクの結果を記録する。
func (c *Collector) RecordLinkOutcome(outcome string) {
	c.linkOutcomes.WithLabelValues(outcome).Inc()
}

// RecordError はユーザーに通知したエラーの分類を記録する。
func (c *Collector) RecordError(kind string) {
	c.errors.WithLabelValues(kind).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop は何も記録しないレコーダー。メトリクス不要なテストや構成で使用する。
type Nop struct{}

func (Nop) RecordFetchSuccess(string) {}
func (Nop) RecordFetchFailure(string) {}
func (Nop) RecordHTTPStatus(int) {}
func (Nop) RecordFetchLatency(time.Duration) {}
func (Nop) RecordArticleSaved() {}
func (Nop) RecordRateLimited() {}
func (Nop) RecordLinkOutcome(string) {}
func (Nop) RecordError(string) {}
