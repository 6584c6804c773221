package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/biolink/internal/captcha"
	"github.com/hitoshi/biolink/internal/metrics"
	"github.com/hitoshi/biolink/internal/middleware"
	"github.com/hitoshi/biolink/internal/repository"
	"github.com/hitoshi/biolink/internal/theme"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	PrincipalResolver middleware.PrincipalResolver
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	CSRFConfig        middleware.CSRFConfig
	Logger            *slog.Logger

	// 公開ページ
	Resolver PageResolverInterface

	// ページ編集
	PageEditor     PageEditorInterface
	ProfileService ProfileServiceInterface
	PageRepo       repository.PageRepository
	SocialLinkRepo repository.SocialLinkRepository
	CustomLinkRepo repository.CustomLinkRepository

	// テーマカタログ
	ThemeRegistry *theme.Registry

	// サインアップ
	CaptchaVerifier captcha.Verifier
	SignUpProvider  SignUpProviderInterface
	UsernameChecker UsernameCheckerInterface

	// 計測（nil可）
	Metrics metrics.MetricsCollector

	// ヘルスチェック用のDB疎通確認（nil可）
	PingDB func(ctx context.Context) error
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → SecurityHeaders → CORS →（認証ルートのみ）Session → CSRF → RateLimit(General)
//
// 公開ページルート（GET /{username}）はワイルドカードのため最後にマウントする。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger, deps.Metrics))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	publicHandler := NewPublicHandler(deps.Resolver, deps.Metrics)
	pageHandler := NewPageHandler(deps.PageEditor, deps.ProfileService, deps.PageRepo, deps.SocialLinkRepo, deps.CustomLinkRepo, deps.Metrics)
	themeHandler := NewThemeHandler(deps.ThemeRegistry)
	signupHandler := NewSignupHandler(deps.CaptchaVerifier, deps.SignUpProvider, deps.UsernameChecker, deps.Metrics)

	// --- 認証不要のルート ---

	r.Get("/health", newHealthHandler(deps.PingDB))

	// サインアップ（IP毎の専用レート制限を適用）
	r.With(deps.RateLimiter.SignupMiddleware()).Post("/auth/signup", signupHandler.SignUp)

	// CSRFトークン取得
	r.Method(http.MethodGet, "/auth/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig))

	// テーマカタログは未認証でも閲覧可能
	r.Get("/api/themes", themeHandler.ListThemes)

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → CSRF → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.PrincipalResolver))
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Get("/api/me", pageHandler.Me)
		r.Put("/api/page", pageHandler.SavePage)
	})

	// --- 公開ページ（ワイルドカード）---
	// 他の全ルートより後にマウントし、/health等の予約パスを奪わないようにする
	r.Get("/{username}", publicHandler.ShowPage)

	return r
}

// newHealthHandler はロードバランサー向けのヘルスチェックハンドラーを返す。
// GET /health
// pingが非nilの場合はデータベースへの疎通を確認し、失敗時は503を返す。
// プロセスが生きていてもDBに到達できなければ、トラフィックを受けるべきではない。
func newHealthHandler(ping func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ping != nil {
			if err := ping(r.Context()); err != nil {
				slog.Error("health check failed: database unreachable",
					slog.String("error", err.Error()),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{"status": "unavailable"})
				return
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}
