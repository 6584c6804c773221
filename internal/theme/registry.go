// Package theme はテーマレジストリとtheme_dataのスキーマ検証を提供する。
//
// レジストリはプロセス起動時に1回構築されるイミュータブルな構成オブジェクトであり、
// 以後は同期なしの並行読み取りのみを想定する。グローバルなミュータブル状態は持たず、
// 利用側（リゾルバ・カタログ）へは参照注入で渡す。
package theme

import "strings"

// Descriptor はテーマ1件のメタデータとレンダラーの組を表す。
// 永続化されないコード定義の構成であり、起動後は不変。
type Descriptor struct {
	ID          string
	Name        string
	Category    string
	Description string
	BestFor     []string
	Renderer    Renderer
}

// Registry はテーマIDからDescriptorへのイミュータブルなマッピング。
// 列挙（カタログ表示）と取得以外の操作は提供しない。
type Registry struct {
	ordered  []Descriptor
	byID     map[string]Descriptor
	fallback Descriptor
}

// NewRegistry はRegistryを構築する。
// descriptorsの順序がList/Filterの返却順となる。
// fallbackは未知テーマID解決時に使用されるデフォルトレンダラーを持つ。
func NewRegistry(fallback Descriptor, descriptors ...Descriptor) *Registry {
	byID := make(map[string]Descriptor, len(descriptors))
	for _, d := range descriptors {
		byID[d.ID] = d
	}
	return &Registry{
		ordered:  descriptors,
		byID:     byID,
		fallback: fallback,
	}
}

// List は登録順のDescriptor一覧のコピーを返す。
func (r *Registry) List() []Descriptor {
	out := make([]Descriptor, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Filter は名前またはカテゴリにクエリ文字列を含むDescriptorを返す。
// 大文字小文字は区別しない。空クエリは全件を返す。
func (r *Registry) Filter(query string) []Descriptor {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return r.List()
	}
	var out []Descriptor
	for _, d := range r.ordered {
		if strings.Contains(strings.ToLower(d.Name), q) ||
			strings.Contains(strings.ToLower(d.Category), q) {
			out = append(out, d)
		}
	}
	return out
}

// Resolve は指定IDのDescriptorを返す。
// 未登録IDは正常系の結果であり、第2戻り値falseで表現する（エラーにはしない）。
func (r *Registry) Resolve(id string) (Descriptor, bool) {
	d, ok := r.byID[id]
	return d, ok
}

// Fallback は未知テーマID用のデフォルトDescriptorを返す。
func (r *Registry) Fallback() Descriptor {
	return r.fallback
}

// DefaultRegistry は組み込みテーマを登録したRegistryを構築する。
func DefaultRegistry() *Registry {
	return NewRegistry(
		Descriptor{
			ID:          "fallback",
			Name:        "Fallback",
			Category:    "system",
			Description: "登録解除済みテーマのページに使用される最小構成のレンダラー。",
			Renderer:    newTemplateRenderer("fallback", fallbackTemplate),
		},
		Descriptor{
			ID:          "quickpitch",
			Name:        "Quick Pitch",
			Category:    "freelancers",
			Description: "見出しとCTAを1画面に収めたシンプルな自己紹介テーマ。",
			BestFor:     []string{"freelancers", "consultants"},
			Renderer:    newTemplateRenderer("quickpitch", quickpitchTemplate),
		},
		Descriptor{
			ID:          "linkstack",
			Name:        "Link Stack",
			Category:    "creators",
			Description: "リンクボタンを縦に並べる定番のlink-in-bioテーマ。",
			BestFor:     []string{"creators", "streamers"},
			Renderer:    newTemplateRenderer("linkstack", linkstackTemplate),
		},
		Descriptor{
			ID:          "portfolio-grid",
			Name:        "Portfolio Grid",
			Category:    "designers",
			Description: "作品をグリッド表示するポートフォリオ向けテーマ。",
			BestFor:     []string{"designers", "photographers"},
			Renderer:    newTemplateRenderer("portfolio-grid", portfolioGridTemplate),
		},
		Descriptor{
			ID:          "neonbio",
			Name:        "Neon Bio",
			Category:    "creators",
			Description: "アクセントカラーを強調したダークトーンのテーマ。",
			BestFor:     []string{"musicians", "creators"},
			Renderer:    newTemplateRenderer("neonbio", neonbioTemplate),
		},
	)
}
