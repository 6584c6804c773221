package handler

import (
	"context"
	"time"

	"github.com/hitoshi/biolink/internal/captcha"
	"github.com/hitoshi/biolink/internal/metrics"
	"github.com/hitoshi/biolink/internal/model"
	"github.com/hitoshi/biolink/internal/page"
	"github.com/hitoshi/biolink/internal/repository"
)

// --- ハンドラーテスト共通のモック ---

type mockPageEditor struct {
	saveFn func(ctx context.Context, userID string, input page.EditInput) (*model.Page, error)
}

var _ PageEditorInterface = (*mockPageEditor)(nil)

func (m *mockPageEditor) Save(ctx context.Context, userID string, input page.EditInput) (*model.Page, error) {
	return m.saveFn(ctx, userID, input)
}

type mockProfileService struct {
	getOrProvisionFn func(ctx context.Context, principal *model.Principal) (*model.Profile, error)
}

var _ ProfileServiceInterface = (*mockProfileService)(nil)

func (m *mockProfileService) GetOrProvision(ctx context.Context, principal *model.Principal) (*model.Profile, error) {
	return m.getOrProvisionFn(ctx, principal)
}

type mockPageRepo struct {
	findByUserIDFn func(ctx context.Context, userID string) (*model.Page, error)
	upsertFn       func(ctx context.Context, p *model.Page) (*model.Page, error)
}

var _ repository.PageRepository = (*mockPageRepo)(nil)

func (m *mockPageRepo) FindByUserID(ctx context.Context, userID string) (*model.Page, error) {
	if m.findByUserIDFn == nil {
		return nil, nil
	}
	return m.findByUserIDFn(ctx, userID)
}

func (m *mockPageRepo) Upsert(ctx context.Context, p *model.Page) (*model.Page, error) {
	if m.upsertFn == nil {
		return p, nil
	}
	return m.upsertFn(ctx, p)
}

type mockSocialLinkRepo struct {
	listByPageIDFn func(ctx context.Context, pageID string) ([]model.SocialLink, error)
}

var _ repository.SocialLinkRepository = (*mockSocialLinkRepo)(nil)

func (m *mockSocialLinkRepo) ListByPageID(ctx context.Context, pageID string) ([]model.SocialLink, error) {
	if m.listByPageIDFn == nil {
		return nil, nil
	}
	return m.listByPageIDFn(ctx, pageID)
}

func (m *mockSocialLinkRepo) ReplaceByPageID(ctx context.Context, pageID string, links []model.SocialLink) error {
	return nil
}

type mockCustomLinkRepo struct {
	listByPageIDFn func(ctx context.Context, pageID string) ([]model.CustomLink, error)
}

var _ repository.CustomLinkRepository = (*mockCustomLinkRepo)(nil)

func (m *mockCustomLinkRepo) ListByPageID(ctx context.Context, pageID string) ([]model.CustomLink, error) {
	if m.listByPageIDFn == nil {
		return nil, nil
	}
	return m.listByPageIDFn(ctx, pageID)
}

func (m *mockCustomLinkRepo) ReplaceByPageID(ctx context.Context, pageID string, links []model.CustomLink) error {
	return nil
}

type mockPageResolver struct {
	resolveFn func(ctx context.Context, username string) (*page.ResolvedPage, error)
}

var _ PageResolverInterface = (*mockPageResolver)(nil)

func (m *mockPageResolver) Resolve(ctx context.Context, username string) (*page.ResolvedPage, error) {
	return m.resolveFn(ctx, username)
}

type mockCaptchaVerifier struct {
	verifyFn func(ctx context.Context, token string) (*captcha.Result, error)
}

var _ captcha.Verifier = (*mockCaptchaVerifier)(nil)

func (m *mockCaptchaVerifier) Verify(ctx context.Context, token string) (*captcha.Result, error) {
	return m.verifyFn(ctx, token)
}

type mockSignUpProvider struct {
	signUpFn func(ctx context.Context, email, password string, attrs map[string]string) error
}

var _ SignUpProviderInterface = (*mockSignUpProvider)(nil)

func (m *mockSignUpProvider) SignUp(ctx context.Context, email, password string, attrs map[string]string) error {
	if m.signUpFn == nil {
		return nil
	}
	return m.signUpFn(ctx, email, password, attrs)
}

// recordingMetricsCollector は各記録メソッドの呼び出しを数えるモック。
type recordingMetricsCollector struct {
	pageResolves   []string
	fallbacks      []string
	pageSaves      []string
	signupSuccess  int
	captchaFail    int
	httpStatuses   []int
	resolveLatency int
}

var _ metrics.MetricsCollector = (*recordingMetricsCollector)(nil)

func (m *recordingMetricsCollector) RecordPageResolve(themeID string) {
	m.pageResolves = append(m.pageResolves, themeID)
}

func (m *recordingMetricsCollector) RecordThemeFallback(themeID string) {
	m.fallbacks = append(m.fallbacks, themeID)
}

func (m *recordingMetricsCollector) RecordPageSave(themeID string) {
	m.pageSaves = append(m.pageSaves, themeID)
}

func (m *recordingMetricsCollector) RecordSignupSuccess() {
	m.signupSuccess++
}

func (m *recordingMetricsCollector) RecordCaptchaFailure() {
	m.captchaFail++
}

func (m *recordingMetricsCollector) RecordHTTPStatus(statusCode int) {
	m.httpStatuses = append(m.httpStatuses, statusCode)
}

func (m *recordingMetricsCollector) RecordResolveLatency(duration time.Duration) {
	m.resolveLatency++
}

type mockUsernameChecker struct {
	isUsernameAvailableFn func(ctx context.Context, username string) (bool, error)
}

var _ UsernameCheckerInterface = (*mockUsernameChecker)(nil)

func (m *mockUsernameChecker) IsUsernameAvailable(ctx context.Context, username string) (bool, error) {
	if m.isUsernameAvailableFn == nil {
		return true, nil
	}
	return m.isUsernameAvailableFn(ctx, username)
}
