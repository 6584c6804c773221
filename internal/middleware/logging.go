package middleware

import (
	"log/slog"
	"net/http"
	"time"
)

// statusRecorder はhttp.ResponseWriterをラップし、ステータスコードを記録する。
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

// WriteHeader はステータスコードを記録してから委譲する。
func (sr *statusRecorder) WriteHeader(code int) {
	if !sr.written {
		sr.statusCode = code
		sr.written = true
	}
	sr.ResponseWriter.WriteHeader(code)
}

// Write はデータを書き込む。WriteHeaderが未呼び出しの場合は200を記録する。
func (sr *statusRecorder) Write(b []byte) (int, error) {
	if !sr.written {
		sr.statusCode = http.StatusOK
		sr.written = true
	}
	return sr.ResponseWriter.Write(b)
}

// StatusRecorder はメトリクス記録用にステータスコード取得可能なResponseWriterを返す。
func StatusRecorder(w http.ResponseWriter) (http.ResponseWriter, func() int) {
	rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
	return rec, func() int { return rec.statusCode }
}

// HTTPStatusCollector はステータスコード別のレスポンス数を記録するインターフェース。
// metrics.MetricsCollectorの部分集合として定義する。
type HTTPStatusCollector interface {
	RecordHTTPStatus(statusCode int)
}

// NewLoggingMiddleware はリクエストのJSON構造化ログを出力するミドルウェアを返す。
// ログにはmethod、path、status、duration_ms、user_id（認証済みの場合）を含む。
// statusesが非nilの場合、レスポンスのステータスコードをメトリクスとして記録する。
func NewLoggingMiddleware(logger *slog.Logger, statuses HTTPStatusCollector) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw, status := StatusRecorder(w)

			next.ServeHTTP(rw, r)

			statusCode := status()
			if statuses != nil {
				statuses.RecordHTTPStatus(statusCode)
			}

			duration := time.Since(start)
			durationMs := float64(duration.Nanoseconds()) / float64(time.Millisecond)

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", statusCode),
				slog.Float64("duration_ms", durationMs),
			}

			// プリンシパルがコンテキストにある場合はユーザーIDを追加
			if principal, err := PrincipalFromContext(r.Context()); err == nil {
				attrs = append(attrs, slog.String("user_id", principal.ID))
			}

			logger.LogAttrs(r.Context(), slog.LevelInfo, "http request", attrs...)
		})
	}
}
