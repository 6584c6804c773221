package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/biolink/internal/captcha"
	"github.com/hitoshi/biolink/internal/metrics"
	"github.com/hitoshi/biolink/internal/middleware"
	"github.com/hitoshi/biolink/internal/model"
	"github.com/hitoshi/biolink/internal/page"
	"github.com/hitoshi/biolink/internal/theme"
)

// newTestRouterDeps は全依存をモックで埋めたRouterDepsを構築する。
// 個別のテストは返り値を上書きしてからNewRouterに渡す。
func newTestRouterDeps(t *testing.T) *RouterDeps {
	t.Helper()

	rateLimiter := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	t.Cleanup(rateLimiter.Stop)

	return &RouterDeps{
		PrincipalResolver: &staticPrincipalResolver{},
		CORSAllowedOrigin: "http://localhost:3000",
		RateLimiter:       rateLimiter,
		CSRFConfig:        middleware.CSRFConfig{},
		Logger:            slog.New(slog.NewJSONHandler(io.Discard, nil)),
		Resolver: &mockPageResolver{
			resolveFn: func(ctx context.Context, username string) (*page.ResolvedPage, error) {
				return &page.ResolvedPage{
					Renderer: &stubRenderer{html: "<html><body>public page</body></html>"},
					ThemeID:  "quickpitch",
					Payload:  map[string]any{},
				}, nil
			},
		},
		PageEditor: &mockPageEditor{
			saveFn: func(ctx context.Context, userID string, input page.EditInput) (*model.Page, error) {
				return &model.Page{ID: "p-1", UserID: userID, Name: input.Name, IsPublished: true}, nil
			},
		},
		ProfileService: staticProfileService(),
		PageRepo:       &mockPageRepo{},
		SocialLinkRepo: &mockSocialLinkRepo{},
		CustomLinkRepo: &mockCustomLinkRepo{},
		ThemeRegistry:  theme.DefaultRegistry(),
		CaptchaVerifier: &mockCaptchaVerifier{
			verifyFn: func(ctx context.Context, token string) (*captcha.Result, error) {
				return &captcha.Result{Success: true}, nil
			},
		},
		SignUpProvider:  &mockSignUpProvider{},
		UsernameChecker: &mockUsernameChecker{},
	}
}

// newTestRouter はデフォルト依存のままルーターを構築する。
func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	return NewRouter(newTestRouterDeps(t))
}

// staticPrincipalResolver はトークン"valid"のみを受理するリゾルバ。
type staticPrincipalResolver struct{}

func (s *staticPrincipalResolver) GetCurrentUser(ctx context.Context, accessToken string) (*model.Principal, error) {
	if accessToken == "valid" {
		return &model.Principal{ID: "u-1", Email: "jane@example.com", Username: "jane"}, nil
	}
	return nil, nil
}

func TestRouter_HealthEndpoint_Returns200(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %s, want status ok", w.Body.String())
	}
}

// ワイルドカードルートが/healthや/api/themesを奪わないことを検証する。
func TestRouter_ReservedPaths_NotShadowedByWildcard(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/themes", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "quickpitch") {
		t.Errorf("body = %s, want theme catalog", w.Body.String())
	}
}

func TestRouter_PublicPage_ServedWithoutAuth(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/jane", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "public page") {
		t.Errorf("body = %s, want rendered public page", w.Body.String())
	}
}

func TestRouter_Me_WithoutSession_Returns401(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestRouter_Me_WithValidSession_Returns200(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: "valid"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200, body = %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"username":"jane"`) {
		t.Errorf("body = %s, want jane profile", w.Body.String())
	}
}

// 認証済みでもCSRFトークンがなければ保存は403で拒否される。
func TestRouter_SavePage_WithoutCSRFToken_Returns403(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPut, "/api/page", strings.NewReader(`{"name":"Jane"}`))
	req.AddCookie(&http.Cookie{Name: "access_token", Value: "valid"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
}

func TestRouter_SavePage_FullStack_Returns200(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPut, "/api/page", strings.NewReader(`{"name":"Jane"}`))
	req.AddCookie(&http.Cookie{Name: "access_token", Value: "valid"})
	req.AddCookie(&http.Cookie{Name: "csrf_token", Value: "tok-abc"})
	req.Header.Set("X-CSRF-Token", "tok-abc")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200, body = %s", w.Code, w.Body.String())
	}
}

func TestRouter_CSRFTokenEndpoint_IssuesToken(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/auth/csrf-token", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "token") {
		t.Errorf("body = %s, want token response", w.Body.String())
	}
}

func TestRouter_Signup_Returns200(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/signup",
		strings.NewReader(`{"email":"jane@example.com","password":"secret123","username":"jane","captchaToken":"tok"}`))
	req.RemoteAddr = "203.0.113.1:51000"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200, body = %s", w.Code, w.Body.String())
	}
}

func TestRouter_SecurityHeaders_SetOnAllResponses(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("X-Content-Type-Options header not set")
	}
}

// DB疎通が取れない場合、ヘルスチェックは503を返す。
func TestRouter_HealthEndpoint_PingFailure_Returns503(t *testing.T) {
	deps := newTestRouterDeps(t)
	deps.PingDB = func(ctx context.Context) error {
		return errors.New("connection refused")
	}
	router := NewRouter(deps)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"unavailable"`) {
		t.Errorf("body = %s, want status unavailable", w.Body.String())
	}
}

// 保存成功後に保存カウンタとHTTPステータスカウンタが実レジストリ上で増えることを検証する。
func TestRouter_SavePage_IncrementsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	deps := newTestRouterDeps(t)
	deps.Metrics = metrics.NewCollector(reg)
	router := NewRouter(deps)

	req := httptest.NewRequest(http.MethodPut, "/api/page", strings.NewReader(`{"name":"Jane"}`))
	req.AddCookie(&http.Cookie{Name: "access_token", Value: "valid"})
	req.AddCookie(&http.Cookie{Name: "csrf_token", Value: "tok-abc"})
	req.Header.Set("X-CSRF-Token", "tok-abc")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body = %s", w.Code, w.Body.String())
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	counted := map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			counted[mf.GetName()] += m.GetCounter().GetValue()
		}
	}
	if counted["biolink_page_save_total"] < 1 {
		t.Errorf("biolink_page_save_total = %v, want >= 1", counted["biolink_page_save_total"])
	}
	if counted["biolink_http_status_total"] < 1 {
		t.Errorf("biolink_http_status_total = %v, want >= 1", counted["biolink_http_status_total"])
	}
}

func TestRouter_UnknownMethod_Returns405(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/themes", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", w.Code)
	}
}
