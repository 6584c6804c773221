// Package app はアプリケーションの起動・依存関係のワイヤリング・シャットダウンを提供する。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/biolink/internal/captcha"
	"github.com/hitoshi/biolink/internal/config"
	"github.com/hitoshi/biolink/internal/database"
	"github.com/hitoshi/biolink/internal/handler"
	"github.com/hitoshi/biolink/internal/identity"
	"github.com/hitoshi/biolink/internal/linkmeta"
	"github.com/hitoshi/biolink/internal/logger"
	"github.com/hitoshi/biolink/internal/metrics"
	"github.com/hitoshi/biolink/internal/middleware"
	"github.com/hitoshi/biolink/internal/page"
	"github.com/hitoshi/biolink/internal/profile"
	"github.com/hitoshi/biolink/internal/repository"
	"github.com/hitoshi/biolink/internal/security"
	"github.com/hitoshi/biolink/internal/theme"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, "biolink")

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	profileRepo := repository.NewPostgresProfileRepo(db)
	pageRepo := repository.NewPostgresPageRepo(db)
	socialLinkRepo := repository.NewPostgresSocialLinkRepo(db)
	customLinkRepo := repository.NewPostgresCustomLinkRepo(db)

	// 3. セキュリティ・計測サービスの初期化
	ssrfGuard := security.NewSSRFGuard()
	sanitizer := security.NewContentSanitizer()

	promRegistry := prometheus.NewRegistry()
	collector := metrics.NewCollector(promRegistry)

	// 4. ドメインサービスの初期化
	themeRegistry := theme.DefaultRegistry()
	schemaValidator, err := theme.NewValidator()
	if err != nil {
		return fmt.Errorf("failed to build theme schema validator: %w", err)
	}

	idpClient := identity.NewClient(identity.ClientConfig{
		BaseURL: cfg.IdentityBaseURL,
		APIKey:  cfg.IdentityAPIKey,
	})

	captchaVerifier := captcha.NewHTTPVerifier(captcha.VerifierConfig{
		Secret:      cfg.HCaptchaSecret,
		AllowBypass: cfg.HCaptchaAllowBypass,
	})
	if cfg.HCaptchaAllowBypass {
		slog.Warn("captcha bypass token is enabled (non-production only)")
	}

	faviconResolver := linkmeta.NewFaviconResolver(ssrfGuard)

	profileService := profile.NewService(profileRepo)
	resolver := page.NewResolver(profileRepo, pageRepo, socialLinkRepo, customLinkRepo, themeRegistry, collector)
	upsertService := page.NewUpsertService(pageRepo, socialLinkRepo, customLinkRepo, schemaValidator, sanitizer, faviconResolver)

	// 5. レート制限の初期化
	rateLimiterCfg := middleware.DefaultRateLimiterConfig()
	rateLimiterCfg.GeneralRPS = cfg.RateLimitGeneralRPS
	rateLimiterCfg.SignupPerHour = cfg.RateLimitSignup
	rateLimiter := middleware.NewRateLimiter(rateLimiterCfg)
	defer rateLimiter.Stop()

	// 6. ルーターの構築
	deps := &handler.RouterDeps{
		PrincipalResolver: idpClient,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		CSRFConfig: middleware.CSRFConfig{
			CookieSecure: cfg.CookieSecure,
			CookieDomain: cfg.CookieDomain,
		},
		Logger: slog.Default(),

		Resolver: resolver,

		PageEditor:     upsertService,
		ProfileService: profileService,
		PageRepo:       pageRepo,
		SocialLinkRepo: socialLinkRepo,
		CustomLinkRepo: customLinkRepo,

		ThemeRegistry: themeRegistry,

		CaptchaVerifier: captchaVerifier,
		SignUpProvider:  idpClient,
		UsernameChecker: profileService,

		Metrics: collector,

		PingDB: db.PingContext,
	}

	router := handler.NewRouter(deps)

	// /metricsはアプリルーターの外でマウントする（公開ページのワイルドカードと衝突させない）
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(promRegistry))
	mux.Handle("/", router)

	// 7. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
