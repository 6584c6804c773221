package page

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/biolink/internal/model"
	"github.com/hitoshi/biolink/internal/repository"
	"github.com/hitoshi/biolink/internal/theme"
)

// SchemaValidator はtheme_dataのスキーマ検証インターフェース。
type SchemaValidator interface {
	// Validate は検証済みドキュメント（config_version注入済み）を返す。
	Validate(themeID string, doc map[string]any) (map[string]any, error)
}

// ContentSanitizer は保存前のコンテンツサニタイズインターフェース。
type ContentSanitizer interface {
	// Sanitize は許可リストベースでHTMLをサニタイズする（bio用）。
	Sanitize(rawHTML string) string
	// StripTags はタグを全て除去しプレーンテキストを返す（名前・肩書き等用）。
	StripTags(raw string) string
}

// IconResolver はカスタムリンクのfavicon解決インターフェース。
// 解決はベストエフォートであり、失敗時は空文字列を返す。
type IconResolver interface {
	ResolveFavicon(ctx context.Context, siteURL string) string
}

// SocialLinkInput はSNSリンク1件の入力。
type SocialLinkInput struct {
	Platform string `json:"platform"`
	URL      string `json:"url"`
}

// CustomLinkInput はカスタムリンク1件の入力。
type CustomLinkInput struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// EditInput はページ編集ペイロード。フィールド名はクライアント側の命名で受け、
// 保存時にストレージ側の命名（cta→cta_text等）へマップされる。
//
// SocialLinksとLinksはどちらもnilと空スライスを区別する:
// nilは「既存の行に触れない」、空スライスは「全削除」を意味する。
type EditInput struct {
	Name         string `json:"name"`
	Profession   string `json:"profession"`
	Tagline      string `json:"tagline"`
	Bio          string `json:"bio"`
	ProfileImage string `json:"profileImage"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	CTA          string `json:"cta"`
	CTALink      string `json:"ctaLink"`

	Theme         string         `json:"theme"`
	ThemeCategory string         `json:"themeCategory"`
	ThemeData     map[string]any `json:"themeData"`

	SocialLinks []SocialLinkInput `json:"socialLinks"`
	Links       []CustomLinkInput `json:"links"`
}

// UpsertService はページの作成・全置換保存を提供する。
type UpsertService struct {
	pages       repository.PageRepository
	socialLinks repository.SocialLinkRepository
	customLinks repository.CustomLinkRepository
	validator   SchemaValidator
	sanitizer   ContentSanitizer
	icons       IconResolver // nil可
}

// NewUpsertService はUpsertServiceを生成する。iconsはnilでもよい。
func NewUpsertService(
	pages repository.PageRepository,
	socialLinks repository.SocialLinkRepository,
	customLinks repository.CustomLinkRepository,
	validator SchemaValidator,
	sanitizer ContentSanitizer,
	icons IconResolver,
) *UpsertService {
	return &UpsertService{
		pages:       pages,
		socialLinks: socialLinks,
		customLinks: customLinks,
		validator:   validator,
		sanitizer:   sanitizer,
		icons:       icons,
	}
}

// Save はページをuser_idキーで作成または全行置換し、is_published=trueとする。
// 保存＝公開であり、下書き状態は存在しない。
//
// 実行順序と失敗時の性質:
//  1. 認証チェックとtheme_data検証はfail-fastで、失敗時は一切の書き込みを行わない。
//  2. ページUPSERT・SNSリンク置換・カスタムリンク置換は独立したストレージ呼び出しであり、
//     途中失敗時のロールバックは行わない。同一入力での再実行は同一の最終状態に収束するため、
//     呼び出し側は部分成功を前提に操作全体を冪等リトライすること。
func (s *UpsertService) Save(ctx context.Context, userID string, input EditInput) (*model.Page, error) {
	// 1. 認証済みプリンシパルを要求
	if userID == "" {
		return nil, model.NewUnauthorizedError()
	}

	// 2. themeとthemeDataが両方指定されている場合のみスキーマ検証
	themeData := input.ThemeData
	if input.Theme != "" && input.ThemeData != nil {
		validated, err := s.validator.Validate(input.Theme, input.ThemeData)
		if err != nil {
			return nil, model.NewInvalidThemeDataError(input.Theme, theme.ValidationReason(err))
		}
		themeData = validated
	}

	// 3. デフォルト値の補完
	themeCategory := input.ThemeCategory
	if themeCategory == "" {
		themeCategory = model.DefaultThemeCategory
	}
	if themeData == nil {
		themeData = map[string]any{"config_version": model.ConfigVersion}
	}

	now := time.Now()
	p := &model.Page{
		ID:            uuid.New().String(),
		UserID:        userID,
		Name:          s.sanitizer.StripTags(input.Name),
		Profession:    s.sanitizer.StripTags(input.Profession),
		Tagline:       s.sanitizer.StripTags(input.Tagline),
		Bio:           s.sanitizer.Sanitize(input.Bio),
		ProfileImage:  input.ProfileImage,
		Email:         input.Email,
		Phone:         input.Phone,
		CTAText:       input.CTA,
		CTALink:       input.CTALink,
		Theme:         input.Theme,
		ThemeCategory: themeCategory,
		ThemeData:     themeData,
		IsPublished:   true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	// 4. user_idをキーにUPSERT（既存行があればID・作成日時は保持される）
	saved, err := s.pages.Upsert(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert page: %w", err)
	}

	// 5. SNSリンクの全置換（nilは変更なし）
	if input.SocialLinks != nil {
		links := make([]model.SocialLink, 0, len(input.SocialLinks))
		for i, in := range input.SocialLinks {
			links = append(links, model.SocialLink{
				ID:           uuid.New().String(),
				PageID:       saved.ID,
				Platform:     in.Platform,
				URL:          in.URL,
				DisplayOrder: i,
				CreatedAt:    now,
			})
		}
		if err := s.socialLinks.ReplaceByPageID(ctx, saved.ID, links); err != nil {
			return nil, fmt.Errorf("failed to replace social links: %w", err)
		}
	}

	// 6. カスタムリンクの全置換（nilは変更なし）
	if input.Links != nil {
		links := make([]model.CustomLink, 0, len(input.Links))
		for i, in := range input.Links {
			link := model.CustomLink{
				ID:           uuid.New().String(),
				PageID:       saved.ID,
				Title:        in.Title,
				URL:          in.URL,
				DisplayOrder: i,
				CreatedAt:    now,
			}
			if s.icons != nil {
				link.FaviconURL = s.icons.ResolveFavicon(ctx, in.URL)
			}
			links = append(links, link)
		}
		if err := s.customLinks.ReplaceByPageID(ctx, saved.ID, links); err != nil {
			return nil, fmt.Errorf("failed to replace custom links: %w", err)
		}
	}

	slog.Info("page published",
		slog.String("user_id", userID),
		slog.String("page_id", saved.ID),
		slog.String("theme", saved.Theme),
	)

	return saved, nil
}
