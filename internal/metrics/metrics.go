// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hitoshi/threadview/internal/model"
)

// クエリ結果の分類ラベル。
const (
	OutcomeOK       = "ok"
	OutcomeNotFound = "not_found"
	OutcomeInvalid  = "invalid"
	OutcomeError    = "error"
)

// MetricsCollector はメトリクス収集のインターフェース。
// サービス層とHTTPミドルウェアから利用する。
type MetricsCollector interface {
	ObserveQuery(op string, duration time.Duration, rows int, err error)
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	queries      *prometheus.CounterVec
	queryLatency *prometheus.HistogramVec
	rowsReturned prometheus.Histogram
	httpStatus   *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "threadview_queries_total",
			Help: "コメントビュー取得の合計数（操作・結果別）",
		}, []string{"op", "outcome"}),
		queryLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "threadview_query_latency_seconds",
			Help:    "ストア問い合わせのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
		rowsReturned: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "threadview_rows_returned",
			Help:    "一覧取得で返した行数",
			Buckets: []float64{0, 1, 5, 10, 20, 50, 100, 300},
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "threadview_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.queries,
		c.queryLatency,
		c.rowsReturned,
		c.httpStatus,
	)

	return c
}

// ObserveQuery はクエリ1回の結果を記録する。
// 検証エラーはストアに到達していないためレイテンシを記録しない。
func (c *Collector) ObserveQuery(op string, duration time.Duration, rows int, err error) {
	outcome := Outcome(err)
	c.queries.WithLabelValues(op, outcome).Inc()
	if outcome == OutcomeInvalid {
		return
	}
	c.queryLatency.WithLabelValues(op).Observe(duration.Seconds())
	if op == "list" && outcome == OutcomeOK {
		c.rowsReturned.Observe(float64(rows))
	}
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Outcome はエラーを結果ラベルに分類する。
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, model.ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, model.ErrInvalidQuery):
		return OutcomeInvalid
	default:
		return OutcomeError
	}
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// メトリクス専用ポートで公開する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
