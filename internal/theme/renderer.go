package theme

import (
	"fmt"
	"html/template"
	"io"
)

// Renderer はテーマIDに束縛された描画単位を表す。
// dataはノーマライザが構築したフラットなペイロード
// （theme_data由来のキー＋共通プロフィールフィールド）。
type Renderer interface {
	Render(w io.Writer, data map[string]any) error
}

// templateRenderer はhtml/templateによるRendererの実装。
// テンプレートは起動時にパースされ、以後不変。
type templateRenderer struct {
	tmpl *template.Template
}

// newTemplateRenderer はテンプレート文字列からtemplateRendererを生成する。
// 組み込みテンプレートのパース失敗はプログラミングエラーのためpanicする。
func newTemplateRenderer(name, text string) *templateRenderer {
	tmpl, err := template.New(name).Parse(text)
	if err != nil {
		panic(fmt.Sprintf("invalid built-in theme template %q: %v", name, err))
	}
	return &templateRenderer{tmpl: tmpl}
}

// Render はペイロードをテンプレートに適用してHTMLを書き出す。
func (r *templateRenderer) Render(w io.Writer, data map[string]any) error {
	if err := r.tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("failed to render theme template: %w", err)
	}
	return nil
}

// 各テーマのテンプレート。ビジュアルデザインはフロントエンド側の責務であり、
// ここでは構造のみを出力する最小構成とする。
const (
	quickpitchTemplate = `<!doctype html>
<html lang="ja"><head><meta charset="utf-8"><title>{{.name}}</title></head>
<body data-theme="quickpitch">
<main>
<h1>{{.name}}</h1>
{{if .headline}}<p class="headline">{{.headline}}</p>{{end}}
{{if .profession}}<p class="profession">{{.profession}}</p>{{end}}
{{if .tagline}}<p class="tagline">{{.tagline}}</p>{{end}}
{{if .ctaText}}<a class="cta" href="{{.ctaLink}}">{{.ctaText}}</a>{{end}}
{{if .email}}<address>{{.email}}</address>{{end}}
</main>
</body></html>
`

	linkstackTemplate = `<!doctype html>
<html lang="ja"><head><meta charset="utf-8"><title>{{.name}}</title></head>
<body data-theme="linkstack">
<main>
{{if .profileImage}}<img src="{{.profileImage}}" alt="{{.name}}">{{end}}
<h1>{{.name}}</h1>
{{if .tagline}}<p class="tagline">{{.tagline}}</p>{{end}}
<nav class="links">
{{range .customLinks}}<a href="{{.URL}}">{{.Title}}</a>
{{end}}</nav>
<nav class="social">
{{range .socialLinks}}<a href="{{.URL}}">{{.Platform}}</a>
{{end}}</nav>
</main>
</body></html>
`

	portfolioGridTemplate = `<!doctype html>
<html lang="ja"><head><meta charset="utf-8"><title>{{.name}}</title></head>
<body data-theme="portfolio-grid">
<main>
<h1>{{.name}}</h1>
{{if .profession}}<p class="profession">{{.profession}}</p>{{end}}
<section class="grid">
{{if .projects}}{{range .projects}}<article><h2>{{.title}}</h2></article>
{{end}}{{end}}</section>
</main>
</body></html>
`

	neonbioTemplate = `<!doctype html>
<html lang="ja"><head><meta charset="utf-8"><title>{{.name}}</title></head>
<body data-theme="neonbio">
<main>
<h1>{{.name}}</h1>
{{if .bio}}<p class="bio">{{.bio}}</p>{{end}}
<nav class="links">
{{range .customLinks}}<a href="{{.URL}}">{{.Title}}</a>
{{end}}</nav>
</main>
</body></html>
`

	fallbackTemplate = `<!doctype html>
<html lang="ja"><head><meta charset="utf-8"><title>{{.headline}}</title></head>
<body data-theme="fallback">
<main>
<h1>{{.headline}}</h1>
{{if .subhead}}<p class="subhead">{{.subhead}}</p>{{end}}
{{if .email}}<address>{{.email}}</address>{{end}}
</main>
</body></html>
`
)
