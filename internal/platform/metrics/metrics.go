// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ユースケース層から利用する。
type MetricsCollector interface {
	RecordBookingCreated(price float64)
	RecordEmailSent(template string, err error)
	RecordCacheLookup(hit bool)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	requests      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	bookings      prometheus.Counter
	bookingAmount prometheus.Counter
	emails        *prometheus.CounterVec
	cacheLookups  *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "natours_http_requests_total",
			Help: "ルート・メソッド・ステータス別のリクエスト数",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "natours_http_request_duration_seconds",
			Help:    "リクエスト処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		bookings: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "natours_bookings_created_total",
			Help: "作成された予約の合計数",
		}),
		bookingAmount: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "natours_bookings_amount_total",
			Help: "作成された予約の合計金額",
		}),
		emails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "natours_emails_total",
			Help: "テンプレート・結果別の送信メール数",
		}, []string{"template", "result"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "natours_cache_lookups_total",
			Help: "ツアーキャッシュの参照数",
		}, []string{"result"}),
	}

	reg.MustRegister(
		c.requests,
		c.duration,
		c.bookings,
		c.bookingAmount,
		c.emails,
		c.cacheLookups,
	)

	return c
}

// Middleware はリクエスト数と処理時間を記録するginミドルウェアを返す。
// ルートラベルにはパスパラメータを含まないルートテンプレートを使う。
func (c *Collector) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := ctx.Request.Method
		c.requests.WithLabelValues(method, route, strconv.Itoa(ctx.Writer.Status())).Inc()
		c.duration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// RecordBookingCreated は予約の作成を記録する。
func (c *Collector) RecordBookingCreated(price float64) {
	c.bookings.Inc()
	c.bookingAmount.Add(price)
}

// RecordEmailSent はメール送信の結果を記録する。
func (c *Collector) RecordEmailSent(template string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.emails.WithLabelValues(template, result).Inc()
}

// RecordCacheLookup はキャッシュのヒット・ミスを記録する。
func (c *Collector) RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	c.cacheLookups.WithLabelValues(result).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop はメトリクスを記録しないMetricsCollector。テストや未設定時に使う。
type Nop struct{}

func (Nop) RecordBookingCreated(float64)  {}
func (Nop) RecordEmailSent(string, error) {}
func (Nop) RecordCacheLookup(bool)        {}
