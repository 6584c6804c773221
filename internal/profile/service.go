// Package profile はプロフィールのドメインロジックを提供する。
package profile

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/hitoshi/biolink/internal/model"
	"github.com/hitoshi/biolink/internal/repository"
)

// usernamePattern は許可されるユーザー名の形式。
// 3〜30文字の英小文字・数字・ハイフン。先頭と末尾はハイフン不可。
var usernamePattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{1,28})?[a-z0-9]$`)

// ValidateUsername はユーザー名の形式を検証する。
func ValidateUsername(username string) error {
	if len(username) < 3 || len(username) > 30 {
		return model.NewInvalidUsernameError("長さは3〜30文字")
	}
	if !usernamePattern.MatchString(username) {
		return model.NewInvalidUsernameError("使用できるのは英小文字・数字・ハイフンのみ")
	}
	return nil
}

// Service はプロフィール管理のサービス層。
type Service struct {
	profiles repository.ProfileRepository
}

// NewService はServiceを生成する。
func NewService(profiles repository.ProfileRepository) *Service {
	return &Service{profiles: profiles}
}

// GetOrProvision は認証済みプリンシパルのプロフィールを取得する。
// 初回読み取り時にプロフィール行が存在しない場合は、IdPの属性から遅延作成する
// （サインアップはIdP側で完結するため、プロフィール行はこの経路で初めて作られる）。
func (s *Service) GetOrProvision(ctx context.Context, principal *model.Principal) (*model.Profile, error) {
	if principal == nil || principal.ID == "" {
		return nil, model.NewUnauthorizedError()
	}

	existing, err := s.profiles.FindByID(ctx, principal.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to find profile: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	if err := ValidateUsername(principal.Username); err != nil {
		return nil, err
	}

	now := time.Now()
	created := &model.Profile{
		ID:        principal.ID,
		Username:  principal.Username,
		Email:     principal.Email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.profiles.Create(ctx, created); err != nil {
		return nil, fmt.Errorf("failed to provision profile: %w", err)
	}

	slog.Info("profile provisioned",
		slog.String("user_id", principal.ID),
		slog.String("username", principal.Username),
	)

	return created, nil
}

// IsUsernameAvailable はユーザー名が未使用かどうかを返す。
func (s *Service) IsUsernameAvailable(ctx context.Context, username string) (bool, error) {
	existing, err := s.profiles.FindByUsername(ctx, username)
	if err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return existing == nil, nil
}
