// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/biolink/internal/model"
)

// accessTokenCookieName はIdP発行のアクセストークンを保持するCookieの名前。
const accessTokenCookieName = "access_token"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// principalContextKey はリクエストコンテキストに認証済みプリンシパルを格納するためのキー。
var principalContextKey = contextKey("principal")

// PrincipalResolver はアクセストークンからプリンシパルを解決するインターフェース。
// identity.Providerの部分集合として定義する。
type PrincipalResolver interface {
	// GetCurrentUser はトークンが無効な場合nilを返す（エラーではない）。
	GetCurrentUser(ctx context.Context, accessToken string) (*model.Principal, error)
}

// NewSessionMiddleware はCookieまたはAuthorizationヘッダーからアクセストークンを読み取り、
// IdPで検証するミドルウェアを返す。
// 認証済みプリンシパルをリクエストコンテキストに注入する。
// 未認証リクエストには統一フォーマットの401を返す。
func NewSessionMiddleware(resolver PrincipalResolver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. リクエストからアクセストークンを取得
			token := extractAccessToken(r)
			if token == "" {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			// 2. IdPでトークンを検証
			principal, err := resolver.GetCurrentUser(r.Context(), token)
			if err != nil {
				slog.Error("failed to resolve principal",
					slog.String("error", err.Error()),
				)
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}
			if principal == nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			// 3. 認証済みプリンシパルをコンテキストに注入
			ctx := context.WithValue(r.Context(), principalContextKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractAccessToken はCookie優先でアクセストークンを取り出す。
// SPA以外のクライアント向けにAuthorization: Bearerもサポートする。
func extractAccessToken(r *http.Request) string {
	if cookie, err := r.Cookie(accessTokenCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	authz := r.Header.Get("Authorization")
	if strings.HasPrefix(authz, "Bearer ") {
		return strings.TrimPrefix(authz, "Bearer ")
	}
	return ""
}

// PrincipalFromContext はリクエストコンテキストからプリンシパルを取得する。
// セッションミドルウェアを通過したリクエストでのみ有効。
func PrincipalFromContext(ctx context.Context) (*model.Principal, error) {
	principal, ok := ctx.Value(principalContextKey).(*model.Principal)
	if !ok || principal == nil || principal.ID == "" {
		return nil, fmt.Errorf("principal not found in context")
	}
	return principal, nil
}

// ContextWithPrincipal はコンテキストにプリンシパルを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithPrincipal(ctx context.Context, principal *model.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}
