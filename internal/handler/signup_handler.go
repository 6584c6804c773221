package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/biolink/internal/captcha"
	"github.com/hitoshi/biolink/internal/metrics"
	"github.com/hitoshi/biolink/internal/model"
	"github.com/hitoshi/biolink/internal/profile"
)

// SignUpProviderInterface は外部IDプロバイダーへのユーザー登録インターフェース。
type SignUpProviderInterface interface {
	// SignUp は外部IDプロバイダーにユーザーを登録する。
	SignUp(ctx context.Context, email, password string, attrs map[string]string) error
}

// UsernameCheckerInterface はユーザー名の利用可否チェックインターフェース。
type UsernameCheckerInterface interface {
	IsUsernameAvailable(ctx context.Context, username string) (bool, error)
}

// SignupHandler はサインアップのHTTPハンドラー。
// CAPTCHA検証 → ユーザー名チェック → 外部IDプロバイダー登録の順に処理する。
type SignupHandler struct {
	verifier captcha.Verifier
	provider SignUpProviderInterface
	checker  UsernameCheckerInterface
	metrics  metrics.MetricsCollector // nil可
}

// NewSignupHandler はSignupHandlerを生成する。collectorはnilでもよい。
func NewSignupHandler(
	verifier captcha.Verifier,
	provider SignUpProviderInterface,
	checker UsernameCheckerInterface,
	collector metrics.MetricsCollector,
) *SignupHandler {
	return &SignupHandler{
		verifier: verifier,
		provider: provider,
		checker:  checker,
		metrics:  collector,
	}
}

// signupRequest はサインアップリクエストのボディ。
type signupRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	Username     string `json:"username"`
	CaptchaToken string `json:"captchaToken"`
}

// SignUp はサインアップを処理する。
// POST /auth/signup
func (h *SignupHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("リクエストボディの解析に失敗しました"))
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	req.Username = strings.TrimSpace(req.Username)

	if req.Email == "" || req.Password == "" || req.Username == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("email, password, usernameは必須です"))
		return
	}

	if err := profile.ValidateUsername(req.Username); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidUsernameError(err.Error()))
		return
	}

	// CAPTCHA検証。検証APIの呼び出し自体が失敗した場合は外部サービスエラーとする
	result, err := h.verifier.Verify(r.Context(), req.CaptchaToken)
	if err != nil {
		slog.Error("captcha verification call failed", slog.String("error", err.Error()))
		writeAPIErrorResponse(w, http.StatusInternalServerError, model.NewCaptchaFailedError())
		return
	}
	if !result.Success {
		slog.Warn("captcha rejected",
			slog.String("username", req.Username),
			slog.Any("error_codes", result.ErrorCodes),
		)
		if h.metrics != nil {
			h.metrics.RecordCaptchaFailure()
		}
		writeAPIErrorResponse(w, http.StatusForbidden, model.NewCaptchaRejectedError())
		return
	}

	available, err := h.checker.IsUsernameAvailable(r.Context(), req.Username)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if !available {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewUsernameTakenError(req.Username))
		return
	}

	// 外部IDプロバイダーに登録。usernameはユーザーメタデータとして渡し、
	// プロフィール行は初回認証アクセス時に遅延作成される
	if err := h.provider.SignUp(r.Context(), req.Email, req.Password, map[string]string{
		"username": req.Username,
	}); err != nil {
		slog.Error("identity provider signup failed",
			slog.String("username", req.Username),
			slog.String("error", err.Error()),
		)
		writeAPIErrorResponse(w, http.StatusInternalServerError, model.NewUpstreamError())
		return
	}

	if h.metrics != nil {
		h.metrics.RecordSignupSuccess()
	}

	slog.Info("signup accepted", slog.String("username", req.Username))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"message": "確認メールを送信しました。メール内のリンクから登録を完了してください。",
	})
}
