package handler

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/biolink/internal/metrics"
	"github.com/hitoshi/biolink/internal/model"
	"github.com/hitoshi/biolink/internal/page"
)

// PageResolverInterface は公開ページハンドラーが必要とするリゾルバインターフェース。
type PageResolverInterface interface {
	// Resolve はユーザー名から描画に必要な一式を解決する。
	Resolve(ctx context.Context, username string) (*page.ResolvedPage, error)
}

// PublicHandler は未認証の公開ページ配信HTTPハンドラー。
type PublicHandler struct {
	resolver PageResolverInterface
	metrics  metrics.MetricsCollector // nil可
}

// NewPublicHandler はPublicHandlerを生成する。metricsはnilでもよい。
func NewPublicHandler(resolver PageResolverInterface, collector metrics.MetricsCollector) *PublicHandler {
	return &PublicHandler{resolver: resolver, metrics: collector}
}

// ShowPage は公開ページをHTMLで配信する。
// GET /{username}
func (h *PublicHandler) ShowPage(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	start := time.Now()

	resolved, err := h.resolver.Resolve(r.Context(), username)
	if err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) &&
			(apiErr.Code == model.ErrCodeProfileNotFound || apiErr.Code == model.ErrCodePageNotFound) {
			writeNotFoundPage(w)
			return
		}

		slog.Error("failed to resolve public page",
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
		writeErrorPage(w)
		return
	}

	// バッファに描画してから書き込む。途中失敗時に中途半端なHTMLを返さない。
	var buf bytes.Buffer
	if err := resolved.Renderer.Render(&buf, resolved.Payload); err != nil {
		slog.Error("failed to render page",
			slog.String("username", username),
			slog.String("theme", resolved.ThemeID),
			slog.String("error", err.Error()),
		)
		writeErrorPage(w)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordPageResolve(resolved.ThemeID)
		h.metrics.RecordResolveLatency(time.Since(start))
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// writeNotFoundPage は404ページを書き込む。
func writeNotFoundPage(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte(`<!DOCTYPE html>
<html lang="ja"><head><meta charset="utf-8"><title>ページが見つかりません</title></head>
<body><h1>404</h1><p>お探しのページは見つかりませんでした。</p></body></html>
`))
}

// writeErrorPage は500ページを書き込む。
func writeErrorPage(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	w.Write([]byte(`<!DOCTYPE html>
<html lang="ja"><head><meta charset="utf-8"><title>エラー</title></head>
<body><h1>500</h1><p>エラーが発生しました。しばらく待ってから再度お試しください。</p></body></html>
`))
}
