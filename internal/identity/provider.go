// Package identity は外部IdP（認証プロバイダー）との連携を提供する。
//
// 認証・セッションの実体はIdP側にあり、このサービスはIdPの発行する
// アクセストークンを信頼して検証を委譲する。認証の再実装は行わない。
package identity

import (
	"context"

	"github.com/hitoshi/biolink/internal/model"
)

// Provider は外部IdPのインターフェース。
type Provider interface {
	// GetCurrentUser はアクセストークンに対応するプリンシパルを取得する。
	// トークンが無効・期限切れの場合はnilを返す（未認証は正常系の結果）。
	GetCurrentUser(ctx context.Context, accessToken string) (*model.Principal, error)

	// SignUp はIdPにユーザーを登録する。
	// attrsはIdP側のユーザーメタデータとして保存される（username等）。
	SignUp(ctx context.Context, email, password string, attrs map[string]string) error

	// SignOut はIdP側のセッションを破棄する。
	SignOut(ctx context.Context, accessToken string) error
}
