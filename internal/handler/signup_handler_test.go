package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/biolink/internal/captcha"
)

func okCaptchaVerifier() *mockCaptchaVerifier {
	return &mockCaptchaVerifier{
		verifyFn: func(ctx context.Context, token string) (*captcha.Result, error) {
			return &captcha.Result{Success: true}, nil
		},
	}
}

func postSignup(t *testing.T, h *SignupHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.SignUp(w, req)
	return w
}

func decodeErrorResponse(t *testing.T, w *httptest.ResponseRecorder) apiErrorResponse {
	t.Helper()
	var resp apiErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return resp
}

func TestSignUp_ValidRequest_Returns200(t *testing.T) {
	var registeredEmail string
	var registeredAttrs map[string]string
	provider := &mockSignUpProvider{
		signUpFn: func(ctx context.Context, email, password string, attrs map[string]string) error {
			registeredEmail = email
			registeredAttrs = attrs
			return nil
		},
	}
	h := NewSignupHandler(okCaptchaVerifier(), provider, &mockUsernameChecker{}, nil)

	w := postSignup(t, h, `{"email":"jane@example.com","password":"secret123","username":"jane","captchaToken":"tok"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body = %s", w.Code, w.Body.String())
	}
	if registeredEmail != "jane@example.com" {
		t.Errorf("registered email = %q, want jane@example.com", registeredEmail)
	}
	if registeredAttrs["username"] != "jane" {
		t.Errorf("registered username attr = %q, want jane", registeredAttrs["username"])
	}

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["message"] == "" {
		t.Error("success message is empty")
	}
}

func TestSignUp_MalformedJSON_Returns400(t *testing.T) {
	h := NewSignupHandler(okCaptchaVerifier(), &mockSignUpProvider{}, &mockUsernameChecker{}, nil)

	w := postSignup(t, h, `{invalid`)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if resp := decodeErrorResponse(t, w); resp.Code != "INVALID_REQUEST" {
		t.Errorf("error code = %q, want INVALID_REQUEST", resp.Code)
	}
}

func TestSignUp_MissingFields_Returns400(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"emailなし", `{"password":"secret123","username":"jane","captchaToken":"tok"}`},
		{"passwordなし", `{"email":"jane@example.com","username":"jane","captchaToken":"tok"}`},
		{"usernameなし", `{"email":"jane@example.com","password":"secret123","captchaToken":"tok"}`},
		{"空白のみのemail", `{"email":"   ","password":"secret123","username":"jane","captchaToken":"tok"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewSignupHandler(okCaptchaVerifier(), &mockSignUpProvider{}, &mockUsernameChecker{}, nil)

			w := postSignup(t, h, tt.body)

			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestSignUp_InvalidUsername_Returns400(t *testing.T) {
	h := NewSignupHandler(okCaptchaVerifier(), &mockSignUpProvider{}, &mockUsernameChecker{}, nil)

	w := postSignup(t, h, `{"email":"jane@example.com","password":"secret123","username":"Jane Doe!","captchaToken":"tok"}`)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if resp := decodeErrorResponse(t, w); resp.Code != "INVALID_USERNAME" {
		t.Errorf("error code = %q, want INVALID_USERNAME", resp.Code)
	}
}

// キャプチャ検証API自体の失敗は500、トークン拒否は403で区別する。
func TestSignUp_CaptchaServiceUnreachable_Returns500(t *testing.T) {
	verifier := &mockCaptchaVerifier{
		verifyFn: func(ctx context.Context, token string) (*captcha.Result, error) {
			return nil, errors.New("connection refused")
		},
	}
	h := NewSignupHandler(verifier, &mockSignUpProvider{}, &mockUsernameChecker{}, nil)

	w := postSignup(t, h, `{"email":"jane@example.com","password":"secret123","username":"jane","captchaToken":"tok"}`)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if resp := decodeErrorResponse(t, w); resp.Code != "CAPTCHA_FAILED" {
		t.Errorf("error code = %q, want CAPTCHA_FAILED", resp.Code)
	}
}

func TestSignUp_CaptchaRejected_Returns403(t *testing.T) {
	verifier := &mockCaptchaVerifier{
		verifyFn: func(ctx context.Context, token string) (*captcha.Result, error) {
			return &captcha.Result{Success: false, ErrorCodes: []string{"invalid-input-response"}}, nil
		},
	}
	providerCalled := false
	provider := &mockSignUpProvider{
		signUpFn: func(ctx context.Context, email, password string, attrs map[string]string) error {
			providerCalled = true
			return nil
		},
	}
	h := NewSignupHandler(verifier, provider, &mockUsernameChecker{}, nil)

	w := postSignup(t, h, `{"email":"jane@example.com","password":"secret123","username":"jane","captchaToken":"bad"}`)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
	if resp := decodeErrorResponse(t, w); resp.Code != "CAPTCHA_REJECTED" {
		t.Errorf("error code = %q, want CAPTCHA_REJECTED", resp.Code)
	}
	if providerCalled {
		t.Error("identity provider must not be called when captcha is rejected")
	}
}

func TestSignUp_UsernameTaken_Returns400(t *testing.T) {
	checker := &mockUsernameChecker{
		isUsernameAvailableFn: func(ctx context.Context, username string) (bool, error) {
			return false, nil
		},
	}
	h := NewSignupHandler(okCaptchaVerifier(), &mockSignUpProvider{}, checker, nil)

	w := postSignup(t, h, `{"email":"jane@example.com","password":"secret123","username":"jane","captchaToken":"tok"}`)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if resp := decodeErrorResponse(t, w); resp.Code != "USERNAME_TAKEN" {
		t.Errorf("error code = %q, want USERNAME_TAKEN", resp.Code)
	}
}

func TestSignUp_UsernameCheckStorageError_Returns500(t *testing.T) {
	checker := &mockUsernameChecker{
		isUsernameAvailableFn: func(ctx context.Context, username string) (bool, error) {
			return false, errors.New("db down")
		},
	}
	h := NewSignupHandler(okCaptchaVerifier(), &mockSignUpProvider{}, checker, nil)

	w := postSignup(t, h, `{"email":"jane@example.com","password":"secret123","username":"jane","captchaToken":"tok"}`)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestSignUp_IdentityProviderFailure_Returns500(t *testing.T) {
	provider := &mockSignUpProvider{
		signUpFn: func(ctx context.Context, email, password string, attrs map[string]string) error {
			return errors.New("idp returned 502")
		},
	}
	h := NewSignupHandler(okCaptchaVerifier(), provider, &mockUsernameChecker{}, nil)

	w := postSignup(t, h, `{"email":"jane@example.com","password":"secret123","username":"jane","captchaToken":"tok"}`)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if resp := decodeErrorResponse(t, w); resp.Code != "UPSTREAM_ERROR" {
		t.Errorf("error code = %q, want UPSTREAM_ERROR", resp.Code)
	}
}
