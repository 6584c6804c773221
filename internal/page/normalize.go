// Package page は公開ページの解決（テーマ選択とデータ正規化）と
// 編集ペイロードの保存を提供する。
package page

import "github.com/hitoshi/biolink/internal/model"

// BuildPayload は保存済みページからレンダラーが期待するフラットなペイロードを構築する。
// theme_dataのキーを先に浅くマージし、その後に正規の共通フィールドで上書きする。
// 同名キーがtheme_data内にあっても共通フィールドが常に優先される。
// ctaText/ctaLinkは共通フィールドではないがレンダラー向けの拡張として
// 同じ優先順位で上書きする。リンク集合が存在しない場合は空のシーケンスとなる。
func BuildPayload(p *model.Page, socialLinks []model.SocialLink, customLinks []model.CustomLink) map[string]any {
	payload := make(map[string]any, len(p.ThemeData)+11)

	for k, v := range p.ThemeData {
		payload[k] = v
	}

	if socialLinks == nil {
		socialLinks = []model.SocialLink{}
	}
	if customLinks == nil {
		customLinks = []model.CustomLink{}
	}

	payload["name"] = p.Name
	payload["profession"] = p.Profession
	payload["tagline"] = p.Tagline
	payload["bio"] = p.Bio
	payload["profileImage"] = p.ProfileImage
	payload["email"] = p.Email
	payload["phone"] = p.Phone
	payload["ctaText"] = p.CTAText
	payload["ctaLink"] = p.CTALink
	payload["socialLinks"] = socialLinks
	payload["customLinks"] = customLinks

	return payload
}

// BuildFallbackPayload は未知テーマIDのページ用の最小ペイロードを構築する。
// headlineは名前（空なら "Welcome"）、subheadはタグライン→職業の順で採用する。
func BuildFallbackPayload(p *model.Page) map[string]any {
	headline := p.Name
	if headline == "" {
		headline = "Welcome"
	}

	subhead := p.Tagline
	if subhead == "" {
		subhead = p.Profession
	}

	return map[string]any{
		"config_version": model.ConfigVersion,
		"headline":       headline,
		"subhead":        subhead,
		"email":          p.Email,
	}
}
