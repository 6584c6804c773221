package page

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/biolink/internal/model"
	"github.com/hitoshi/biolink/internal/repository"
	"github.com/hitoshi/biolink/internal/theme"
)

// FallbackRecorder はテーマフォールバック発生の計測インターフェース。
type FallbackRecorder interface {
	RecordThemeFallback(themeID string)
}

// ResolvedPage は公開ページの描画に必要な一式。
type ResolvedPage struct {
	Renderer theme.Renderer
	ThemeID  string
	Payload  map[string]any
	Fallback bool
}

// Resolver はユーザー名から公開ページを解決する。
// ストレージに対して読み取りのみを行う。
type Resolver struct {
	profiles    repository.ProfileRepository
	pages       repository.PageRepository
	socialLinks repository.SocialLinkRepository
	customLinks repository.CustomLinkRepository
	registry    *theme.Registry
	metrics     FallbackRecorder // nil可
}

// NewResolver はResolverを生成する。metricsはnilでもよい。
func NewResolver(
	profiles repository.ProfileRepository,
	pages repository.PageRepository,
	socialLinks repository.SocialLinkRepository,
	customLinks repository.CustomLinkRepository,
	registry *theme.Registry,
	metrics FallbackRecorder,
) *Resolver {
	return &Resolver{
		profiles:    profiles,
		pages:       pages,
		socialLinks: socialLinks,
		customLinks: customLinks,
		registry:    registry,
		metrics:     metrics,
	}
}

// Resolve はユーザー名から公開ページを解決する。
// ユーザー名はストレージと完全一致で照合する（正規化は行わない）。
//
// プロフィールまたはページが存在しない場合はAPIError（not found）を返す。
// ページのテーマIDがレジストリで解決できない場合は失敗とせず、
// デフォルトレンダラーと最小ペイロードにフォールバックする。
// フォールバックは回復可能な異常としてログに記録される。
func (r *Resolver) Resolve(ctx context.Context, username string) (*ResolvedPage, error) {
	// 1. ユーザー名からプロフィールを特定
	profile, err := r.profiles.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to find profile: %w", err)
	}
	if profile == nil {
		return nil, model.NewProfileNotFoundError(username)
	}

	// 2. プロフィールIDからページとリンク集合を取得
	p, err := r.pages.FindByUserID(ctx, profile.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to find page: %w", err)
	}
	if p == nil {
		return nil, model.NewPageNotFoundError(username)
	}

	socialLinks, err := r.socialLinks.ListByPageID(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list social links: %w", err)
	}
	customLinks, err := r.customLinks.ListByPageID(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list custom links: %w", err)
	}

	// 3. テーマをレジストリで解決
	descriptor, ok := r.registry.Resolve(p.Theme)
	if !ok {
		// 登録解除済みテーマが割り当たったままのページ。
		// リクエストは失敗させず、デフォルトレンダラーへフォールバックする。
		slog.Warn("unknown theme, falling back to default renderer",
			slog.String("username", username),
			slog.String("theme", p.Theme),
		)
		if r.metrics != nil {
			r.metrics.RecordThemeFallback(p.Theme)
		}

		fallback := r.registry.Fallback()
		return &ResolvedPage{
			Renderer: fallback.Renderer,
			ThemeID:  fallback.ID,
			Payload:  BuildFallbackPayload(p),
			Fallback: true,
		}, nil
	}

	return &ResolvedPage{
		Renderer: descriptor.Renderer,
		ThemeID:  descriptor.ID,
		Payload:  BuildPayload(p, socialLinks, customLinks),
	}, nil
}
