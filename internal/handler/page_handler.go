package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/biolink/internal/metrics"
	"github.com/hitoshi/biolink/internal/middleware"
	"github.com/hitoshi/biolink/internal/model"
	"github.com/hitoshi/biolink/internal/page"
	"github.com/hitoshi/biolink/internal/repository"
)

// PageEditorInterface はページ保存ハンドラーが必要とするサービスインターフェース。
type PageEditorInterface interface {
	// Save はページをuser_idキーで作成または全行置換する。
	Save(ctx context.Context, userID string, input page.EditInput) (*model.Page, error)
}

// ProfileServiceInterface はプロフィール取得のためのインターフェース。
type ProfileServiceInterface interface {
	// GetOrProvision は認証済みプリンシパルのプロフィールを取得し、
	// 未作成の場合は初回アクセス時に作成する。
	GetOrProvision(ctx context.Context, principal *model.Principal) (*model.Profile, error)
}

// PageHandler は認証済みユーザー向けのページ編集HTTPハンドラー。
type PageHandler struct {
	editor      PageEditorInterface
	profiles    ProfileServiceInterface
	pages       repository.PageRepository
	socialLinks repository.SocialLinkRepository
	customLinks repository.CustomLinkRepository
	metrics     metrics.MetricsCollector // nil可
}

// NewPageHandler はPageHandlerを生成する。collectorはnilでもよい。
func NewPageHandler(
	editor PageEditorInterface,
	profiles ProfileServiceInterface,
	pages repository.PageRepository,
	socialLinks repository.SocialLinkRepository,
	customLinks repository.CustomLinkRepository,
	collector metrics.MetricsCollector,
) *PageHandler {
	return &PageHandler{
		editor:      editor,
		profiles:    profiles,
		pages:       pages,
		socialLinks: socialLinks,
		customLinks: customLinks,
		metrics:     collector,
	}
}

// pageResponse はページ情報のAPIレスポンス。
// 入力側と同じクライアント命名（cta, ctaLink等）で返す。
type pageResponse struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Profession    string           `json:"profession"`
	Tagline       string           `json:"tagline"`
	Bio           string           `json:"bio"`
	ProfileImage  string           `json:"profileImage"`
	Email         string           `json:"email"`
	Phone         string           `json:"phone"`
	CTA           string           `json:"cta"`
	CTALink       string           `json:"ctaLink"`
	Theme         string           `json:"theme"`
	ThemeCategory string           `json:"themeCategory"`
	ThemeData     map[string]any   `json:"themeData"`
	IsPublished   bool             `json:"isPublished"`
	SocialLinks   []socialLinkJSON `json:"socialLinks"`
	Links         []customLinkJSON `json:"links"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

type socialLinkJSON struct {
	Platform     string `json:"platform"`
	URL          string `json:"url"`
	DisplayOrder int    `json:"displayOrder"`
}

type customLinkJSON struct {
	Title        string `json:"title"`
	URL          string `json:"url"`
	FaviconURL   string `json:"faviconUrl"`
	DisplayOrder int    `json:"displayOrder"`
}

// meResponse はGET /api/meのレスポンス。
type meResponse struct {
	ID       string        `json:"id"`
	Username string        `json:"username"`
	Email    string        `json:"email"`
	Page     *pageResponse `json:"page"`
}

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// SavePage はページの保存（作成または全置換）を処理する。
// PUT /api/page
func (h *PageHandler) SavePage(w http.ResponseWriter, r *http.Request) {
	principal, err := middleware.PrincipalFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var input page.EditInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("リクエストボディの解析に失敗しました"))
		return
	}

	// 初回保存に備えてプロフィールを遅延作成する
	profile, err := h.profiles.GetOrProvision(r.Context(), principal)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	saved, err := h.editor.Save(r.Context(), profile.ID, input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordPageSave(saved.Theme)
	}

	resp, err := h.buildPageResponse(r.Context(), saved)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// Me は認証済みユーザーのプロフィールとページ設定を返す。
// GET /api/me
func (h *PageHandler) Me(w http.ResponseWriter, r *http.Request) {
	principal, err := middleware.PrincipalFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	profile, err := h.profiles.GetOrProvision(r.Context(), principal)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := meResponse{
		ID:       profile.ID,
		Username: profile.Username,
		Email:    profile.Email,
	}

	// ページ未作成はエラーではなくpage: nullとして返す
	p, err := h.pages.FindByUserID(r.Context(), profile.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if p != nil {
		pageResp, err := h.buildPageResponse(r.Context(), p)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		resp.Page = pageResp
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// buildPageResponse はページとリンク集合からAPIレスポンスを組み立てる。
func (h *PageHandler) buildPageResponse(ctx context.Context, p *model.Page) (*pageResponse, error) {
	socialLinks, err := h.socialLinks.ListByPageID(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	customLinks, err := h.customLinks.ListByPageID(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	resp := &pageResponse{
		ID:            p.ID,
		Name:          p.Name,
		Profession:    p.Profession,
		Tagline:       p.Tagline,
		Bio:           p.Bio,
		ProfileImage:  p.ProfileImage,
		Email:         p.Email,
		Phone:         p.Phone,
		CTA:           p.CTAText,
		CTALink:       p.CTALink,
		Theme:         p.Theme,
		ThemeCategory: p.ThemeCategory,
		ThemeData:     p.ThemeData,
		IsPublished:   p.IsPublished,
		SocialLinks:   make([]socialLinkJSON, 0, len(socialLinks)),
		Links:         make([]customLinkJSON, 0, len(customLinks)),
		UpdatedAt:     p.UpdatedAt,
	}
	for _, l := range socialLinks {
		resp.SocialLinks = append(resp.SocialLinks, socialLinkJSON{
			Platform:     l.Platform,
			URL:          l.URL,
			DisplayOrder: l.DisplayOrder,
		})
	}
	for _, l := range customLinks {
		resp.Links = append(resp.Links, customLinkJSON{
			Title:        l.Title,
			URL:          l.URL,
			FaviconURL:   l.FaviconURL,
			DisplayOrder: l.DisplayOrder,
		})
	}

	return resp, nil
}

// --- ヘルパー関数 ---

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeProfileNotFound, model.ErrCodePageNotFound:
		return http.StatusNotFound
	case model.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case model.ErrCodeInvalidThemeData, model.ErrCodeInvalidRequest,
		model.ErrCodeUsernameTaken, model.ErrCodeInvalidUsername:
		return http.StatusBadRequest
	case model.ErrCodeCaptchaRejected:
		return http.StatusForbidden
	case model.ErrCodeCaptchaFailed, model.ErrCodeUpstreamError:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
