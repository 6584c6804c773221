package page

import (
	"context"

	"github.com/hitoshi/biolink/internal/model"
)

// --- モック ---

type mockProfileRepo struct {
	findByUsernameFn func(ctx context.Context, username string) (*model.Profile, error)
	findByIDFn       func(ctx context.Context, id string) (*model.Profile, error)
	createFn         func(ctx context.Context, profile *model.Profile) error
}

func (m *mockProfileRepo) FindByUsername(ctx context.Context, username string) (*model.Profile, error) {
	return m.findByUsernameFn(ctx, username)
}
func (m *mockProfileRepo) FindByID(ctx context.Context, id string) (*model.Profile, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockProfileRepo) Create(ctx context.Context, profile *model.Profile) error {
	if m.createFn != nil {
		return m.createFn(ctx, profile)
	}
	return nil
}

type mockPageRepo struct {
	findByUserIDFn func(ctx context.Context, userID string) (*model.Page, error)
	upsertFn       func(ctx context.Context, page *model.Page) (*model.Page, error)
}

func (m *mockPageRepo) FindByUserID(ctx context.Context, userID string) (*model.Page, error) {
	if m.findByUserIDFn != nil {
		return m.findByUserIDFn(ctx, userID)
	}
	return nil, nil
}
func (m *mockPageRepo) Upsert(ctx context.Context, page *model.Page) (*model.Page, error) {
	return m.upsertFn(ctx, page)
}

type mockSocialLinkRepo struct {
	listByPageIDFn    func(ctx context.Context, pageID string) ([]model.SocialLink, error)
	replaceByPageIDFn func(ctx context.Context, pageID string, links []model.SocialLink) error
}

func (m *mockSocialLinkRepo) ListByPageID(ctx context.Context, pageID string) ([]model.SocialLink, error) {
	if m.listByPageIDFn != nil {
		return m.listByPageIDFn(ctx, pageID)
	}
	return nil, nil
}
func (m *mockSocialLinkRepo) ReplaceByPageID(ctx context.Context, pageID string, links []model.SocialLink) error {
	if m.replaceByPageIDFn != nil {
		return m.replaceByPageIDFn(ctx, pageID, links)
	}
	return nil
}

type mockCustomLinkRepo struct {
	listByPageIDFn    func(ctx context.Context, pageID string) ([]model.CustomLink, error)
	replaceByPageIDFn func(ctx context.Context, pageID string, links []model.CustomLink) error
}

func (m *mockCustomLinkRepo) ListByPageID(ctx context.Context, pageID string) ([]model.CustomLink, error) {
	if m.listByPageIDFn != nil {
		return m.listByPageIDFn(ctx, pageID)
	}
	return nil, nil
}
func (m *mockCustomLinkRepo) ReplaceByPageID(ctx context.Context, pageID string, links []model.CustomLink) error {
	if m.replaceByPageIDFn != nil {
		return m.replaceByPageIDFn(ctx, pageID, links)
	}
	return nil
}

// passthroughSanitizer はテスト用のサニタイザ。入力をそのまま返す。
type passthroughSanitizer struct{}

func (passthroughSanitizer) Sanitize(rawHTML string) string { return rawHTML }
func (passthroughSanitizer) StripTags(raw string) string    { return raw }

// mockValidator はテスト用のスキーマバリデータ。
type mockValidator struct {
	validateFn func(themeID string, doc map[string]any) (map[string]any, error)
}

func (m *mockValidator) Validate(themeID string, doc map[string]any) (map[string]any, error) {
	return m.validateFn(themeID, doc)
}
