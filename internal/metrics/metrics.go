// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// フィードクライアントとリフレッシャーから利用する。
type MetricsCollector interface {
	RecordFetchSuccess()
	RecordFetchFailure(kind string)
	RecordHTTPStatus(statusCode int)
	RecordFetchLatency(duration time.Duration)
	RecordSnapshotSize(count int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	fetchSuccess  prometheus.Counter
	fetchFail     *prometheus.CounterVec
	httpStatus    *prometheus.CounterVec
	fetchLatency  prometheus.Histogram
	snapshotSize  prometheus.Gauge
	lastSuccessAt prometheus.Gauge
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		fetchSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "zazij_fetch_success_total",
			Help: "イベントフィード取得成功の合計数",
		}),
		fetchFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "zazij_fetch_fail_total",
			Help: "イベントフィード取得失敗の合計数（種別ごと）",
		}, []string{"kind"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "zazij_feed_http_status_total",
			Help: "フィード取得時のHTTPステータスコード別レスポンス数",
		}, []string{"status_code"}),
		fetchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "zazij_fetch_latency_seconds",
			Help:    "フィード取得のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		snapshotSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "zazij_events_in_store",
			Help: "ストアが保持しているイベント数",
		}),
		lastSuccessAt: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "zazij_last_fetch_success_timestamp_seconds",
			Help: "最後にフィード取得が成功した時刻（UNIX秒）",
		}),
	}

	reg.MustRegister(
		c.fetchSuccess,
		c.fetchFail,
		c.httpStatus,
		c.fetchLatency,
		c.snapshotSize,
		c.lastSuccessAt,
	)

	return c
}

// RecordFetchSuccess はフェッチ成功を記録する。
func (c *Collector) RecordFetchSuccess() {
	c.fetchSuccess.Inc()
	c.lastSuccessAt.SetToCurrentTime()
}

// RecordFetchFailure はフェッチ失敗を種別ラベル付きで記録する。
func (c *Collector) RecordFetchFailure(kind string) {
	c.fetchFail.WithLabelValues(kind).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordFetchLatency はフェッチのレイテンシを記録する。
func (c *Collector) RecordFetchLatency(duration time.Duration) {
	c.fetchLatency.Observe(duration.Seconds())
}

// RecordSnapshotSize はストアのイベント数を記録する。
func (c *Collector) RecordSnapshotSize(count int) {
	c.snapshotSize.Set(float64(count))
}

// Nop は何も記録しないMetricsCollector。CLIのfetchコマンドやテストで使用する。
type Nop struct{}

func (Nop) RecordFetchSuccess()              {}
func (Nop) RecordFetchFailure(string)        {}
func (Nop) RecordHTTPStatus(int)             {}
func (Nop) RecordFetchLatency(time.Duration) {}
func (Nop) RecordSnapshotSize(int)           {}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
