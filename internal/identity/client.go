package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hitoshi/biolink/internal/model"
)

const defaultRequestTimeout = 10 * time.Second

// ClientConfig はIdP HTTPクライアントの設定。
type ClientConfig struct {
	// BaseURL はIdPのAPIルート（例: "https://auth.example.com/v1"）。
	BaseURL string
	// APIKey は全リクエストに付与される公開APIキー。
	APIKey string

	// テスト用にオーバーライド可能なHTTPクライアント
	HTTPClient *http.Client
}

// Client はHTTP経由でIdPと通信するProviderの実装。
// GoTrue互換のエンドポイント（/signup, /user, /logout）を前提とする。
type Client struct {
	config ClientConfig
	http   *http.Client
}

// NewClient はClientを生成する。
func NewClient(config ClientConfig) *Client {
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultRequestTimeout}
	}
	return &Client{config: config, http: httpClient}
}

// signUpRequest はIdPのサインアップエンドポイントのリクエストボディ。
type signUpRequest struct {
	Email    string            `json:"email"`
	Password string            `json:"password"`
	Data     map[string]string `json:"data,omitempty"`
}

// userResponse はIdPのユーザー情報エンドポイントのレスポンス。
type userResponse struct {
	ID           string            `json:"id"`
	Email        string            `json:"email"`
	UserMetadata map[string]string `json:"user_metadata"`
}

// GetCurrentUser はアクセストークンに対応するプリンシパルを取得する。
// IdPが401を返した場合はnilを返す（未認証は正常系）。
func (c *Client) GetCurrentUser(ctx context.Context, accessToken string) (*model.Principal, error) {
	if accessToken == "" {
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/user", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create user request: %w", err)
	}
	c.setHeaders(req, accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("user request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user request returned status %d", resp.StatusCode)
	}

	var user userResponse
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to decode user response: %w", err)
	}

	return &model.Principal{
		ID:       user.ID,
		Email:    user.Email,
		Username: user.UserMetadata["username"],
	}, nil
}

// SignUp はIdPにユーザーを登録する。
func (c *Client) SignUp(ctx context.Context, email, password string, attrs map[string]string) error {
	body, err := json.Marshal(signUpRequest{
		Email:    email,
		Password: password,
		Data:     attrs,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal signup request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/signup", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create signup request: %w", err)
	}
	c.setHeaders(req, "")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("signup request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// 詳細はログ用に読み取るが、呼び出し側へはステータスのみ伝える
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("signup returned status %d: %s", resp.StatusCode, string(detail))
	}

	return nil
}

// SignOut はIdP側のセッションを破棄する。
// 現状ログアウトはクライアント側のCookie削除のみで完結するため
// APIルートとしては公開していない。公開する際はセッションミドルウェア配下に置くこと。
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/logout", nil)
	if err != nil {
		return fmt.Errorf("failed to create logout request: %w", err)
	}
	c.setHeaders(req, accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("logout request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("logout returned status %d", resp.StatusCode)
	}

	return nil
}

// setHeaders はAPIキーと（あれば）Bearerトークンをリクエストへ付与する。
func (c *Client) setHeaders(req *http.Request, accessToken string) {
	req.Header.Set("apikey", c.config.APIKey)
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
}

// compile-time interface check
var _ Provider = (*Client)(nil)
