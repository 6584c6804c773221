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
// ページ解決やサービス層から利用する。
type MetricsCollector interface {
	RecordPageResolve(themeID string)
	RecordThemeFallback(themeID string)
	RecordPageSave(themeID string)
	RecordSignupSuccess()
	RecordCaptchaFailure()
	RecordHTTPStatus(statusCode int)
	RecordResolveLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	pageResolve    *prometheus.CounterVec
	themeFallback  *prometheus.CounterVec
	pageSave       *prometheus.CounterVec
	signupSuccess  prometheus.Counter
	captchaFail    prometheus.Counter
	httpStatus     *prometheus.CounterVec
	resolveLatency prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		pageResolve: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "biolink_page_resolve_total",
			Help: "テーマ別のページ解決成功数",
		}, []string{"theme_id"}),
		themeFallback: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "biolink_theme_fallback_total",
			Help: "未知テーマによるフォールバック発生数",
		}, []string{"theme_id"}),
		pageSave: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "biolink_page_save_total",
			Help: "テーマ別のページ保存成功数",
		}, []string{"theme_id"}),
		signupSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "biolink_signup_success_total",
			Help: "サインアップ成功の合計数",
		}),
		captchaFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "biolink_captcha_fail_total",
			Help: "CAPTCHA検証失敗の合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "biolink_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		resolveLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "biolink_resolve_latency_seconds",
			Help:    "ページ解決のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.pageResolve,
		c.themeFallback,
		c.pageSave,
		c.signupSuccess,
		c.captchaFail,
		c.httpStatus,
		c.resolveLatency,
	)

	return c
}

// RecordPageResolve はページ解決成功を記録する。
func (c *Collector) RecordPageResolve(themeID string) {
	c.pageResolve.WithLabelValues(themeID).Inc()
}

// RecordThemeFallback は未知テーマによるフォールバックを記録する。
func (c *Collector) RecordThemeFallback(themeID string) {
	c.themeFallback.WithLabelValues(themeID).Inc()
}

// RecordPageSave はページ保存成功を記録する。
func (c *Collector) RecordPageSave(themeID string) {
	c.pageSave.WithLabelValues(themeID).Inc()
}

// RecordSignupSuccess はサインアップ成功を記録する。
func (c *Collector) RecordSignupSuccess() {
	c.signupSuccess.Inc()
}

// RecordCaptchaFailure はCAPTCHA検証失敗を記録する。
func (c *Collector) RecordCaptchaFailure() {
	c.captchaFail.Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordResolveLatency はページ解決のレイテンシを記録する。
func (c *Collector) RecordResolveLatency(duration time.Duration) {
	c.resolveLatency.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
// /metricsへのマウントは呼び出し側（公開ページのワイルドカードを避けるため
// アプリルーターの外側）で行う。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
