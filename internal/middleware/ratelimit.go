package middleware

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiterConfig はレート制限の設定。
type RateLimiterConfig struct {
	// GeneralRPS は認証済みAPI全体のユーザー毎リクエスト/秒。
	GeneralRPS float64
	// GeneralBurst は認証済みAPIのバーストサイズ。
	GeneralBurst int
	// SignupPerHour はサインアップのIP毎の1時間あたり許可回数。
	SignupPerHour int
	// CleanupInterval は未使用リミッターの掃除間隔。
	CleanupInterval time.Duration
	// IdleTimeout はこの時間アクセスのないリミッターを破棄する。
	IdleTimeout time.Duration
}

// DefaultRateLimiterConfig は本番向けのデフォルト設定を返す。
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRPS:      10,
		GeneralBurst:    20,
		SignupPerHour:   5,
		CleanupInterval: 10 * time.Minute,
		IdleTimeout:     30 * time.Minute,
	}
}

// keyedLimiter はキー（ユーザーIDまたはIP）毎のリミッターと最終アクセス時刻。
type keyedLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter はキー毎のトークンバケットを管理する。
// サインアップはIP毎、認証済みAPIはユーザー毎に独立したバケットを持つ。
type RateLimiter struct {
	config RateLimiterConfig

	mu       sync.Mutex
	general  map[string]*keyedLimiter
	signup   map[string]*keyedLimiter
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter はRateLimiterを作成し、バックグラウンドの掃除ループを開始する。
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	rl := &RateLimiter{
		config:   config,
		general:  make(map[string]*keyedLimiter),
		signup:   make(map[string]*keyedLimiter),
		stopChan: make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Stop は掃除ループを停止する。
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() {
		close(rl.stopChan)
	})
}

// GeneralMiddleware は認証済みAPI向けのユーザー毎レート制限ミドルウェアを返す。
// セッションミドルウェアの後段に配置すること。
func (rl *RateLimiter) GeneralMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := PrincipalFromContext(r.Context())
			if err != nil {
				// セッションミドルウェアを通過していれば到達しない
				next.ServeHTTP(w, r)
				return
			}

			limiter := rl.getGeneralLimiter(principal.ID)
			if !limiter.Allow() {
				slog.Warn("rate limit exceeded",
					slog.String("user_id", principal.ID),
					slog.String("path", r.URL.Path),
				)
				writeRateLimitResponse(w, "リクエストが多すぎます。しばらく待ってから再試行してください。")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// SignupMiddleware はサインアップ向けのIP毎レート制限ミドルウェアを返す。
// サインアップは未認証のため、クライアントIPをキーとする。
func (rl *RateLimiter) SignupMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)

			limiter := rl.getSignupLimiter(ip)
			if !limiter.Allow() {
				slog.Warn("signup rate limit exceeded",
					slog.String("ip", ip),
				)
				writeRateLimitResponse(w, "登録リクエストが多すぎます。しばらく待ってから再試行してください。")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// getGeneralLimiter はユーザーIDに対応するリミッターを取得または作成する。
func (rl *RateLimiter) getGeneralLimiter(userID string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	kl, exists := rl.general[userID]
	if !exists {
		kl = &keyedLimiter{
			limiter: rate.NewLimiter(rate.Limit(rl.config.GeneralRPS), rl.config.GeneralBurst),
		}
		rl.general[userID] = kl
	}
	kl.lastAccess = time.Now()

	return kl.limiter
}

// getSignupLimiter はクライアントIPに対応するリミッターを取得または作成する。
func (rl *RateLimiter) getSignupLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	kl, exists := rl.signup[ip]
	if !exists {
		perSecond := float64(rl.config.SignupPerHour) / 3600.0
		kl = &keyedLimiter{
			limiter: rate.NewLimiter(rate.Limit(perSecond), rl.config.SignupPerHour),
		}
		rl.signup[ip] = kl
	}
	kl.lastAccess = time.Now()

	return kl.limiter
}

// cleanupLoop は一定間隔でアイドル状態のリミッターを削除する。
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopChan:
			return
		}
	}
}

// cleanup はIdleTimeoutを超えてアクセスのないリミッターを削除する。
func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-rl.config.IdleTimeout)

	for key, kl := range rl.general {
		if kl.lastAccess.Before(cutoff) {
			delete(rl.general, key)
		}
	}
	for key, kl := range rl.signup {
		if kl.lastAccess.Before(cutoff) {
			delete(rl.signup, key)
		}
	}
}

// clientIP はリクエストからクライアントIPを抽出する。
// リバースプロキシ配下を想定し、X-Forwarded-Forの先頭を優先する。
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for i := 0; i < len(xff); i++ {
			if xff[i] == ',' {
				return xff[:i]
			}
		}
		return xff
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// writeRateLimitResponse は429レスポンスを書き込む。
func writeRateLimitResponse(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", "60")
	w.WriteHeader(http.StatusTooManyRequests)
	json.NewEncoder(w).Encode(ErrorResponseBody{
		Code:     "RATE_LIMIT_EXCEEDED",
		Message:  message,
		Category: "rate_limit",
		Action:   "時間をおいて再試行してください",
	})
}
