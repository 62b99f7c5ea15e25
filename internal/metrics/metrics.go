// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Webhook処理結果のラベル値。
const (
	OutcomeProcessed = "processed"
	OutcomeSkipped   = "skipped"
	OutcomeIgnored   = "ignored"
	OutcomeFailed    = "failed"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ハンドラーやミドルウェアから利用する。
type MetricsCollector interface {
	RecordWebhookEvent(eventType, outcome string)
	RecordWebhookRejected(reason string)
	RecordWebhookLatency(duration time.Duration)
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	webhookEvents   *prometheus.CounterVec
	webhookRejected *prometheus.CounterVec
	webhookLatency  prometheus.Histogram
	httpStatus      *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobboard_webhook_events_total",
			Help: "イベント種別・処理結果別のWebhook受信数",
		}, []string{"event_type", "outcome"}),
		webhookRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobboard_webhook_rejected_total",
			Help: "署名検証・ペイロード検証で拒否したWebhook数",
		}, []string{"reason"}),
		webhookLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "jobboard_webhook_latency_seconds",
			Help:    "Webhook処理のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobboard_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.webhookEvents,
		c.webhookRejected,
		c.webhookLatency,
		c.httpStatus,
	)

	return c
}

// RecordWebhookEvent はWebhookイベントの処理結果を記録する。
func (c *Collector) RecordWebhookEvent(eventType, outcome string) {
	if eventType == "" {
		eventType = "unknown"
	}
	c.webhookEvents.WithLabelValues(eventType, outcome).Inc()
}

// RecordWebhookRejected は拒否したWebhookを理由別に記録する。
func (c *Collector) RecordWebhookRejected(reason string) {
	c.webhookRejected.WithLabelValues(reason).Inc()
}

// RecordWebhookLatency はWebhook処理のレイテンシを記録する。
func (c *Collector) RecordWebhookLatency(duration time.Duration) {
	c.webhookLatency.Observe(duration.Seconds())
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// statusWriter はレスポンスのステータスコードを記録する。
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

// StatusMiddleware は全レスポンスのステータスコードを記録するミドルウェアを返す。
func StatusMiddleware(c MetricsCollector) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := &statusWriter{ResponseWriter: w}
			next.ServeHTTP(sw, r)
			if sw.status == 0 {
				sw.status = http.StatusOK
			}
			c.RecordHTTPStatus(sw.status)
		})
	}
}
