// ContentSanitizerService はユーザー入力のプロフィールコンテンツをサニタイズし、
// 公開ページの閲覧者をXSS等のリスクから保護する。
// bluemondayライブラリによる許可リストベースのポリシーを使用する。
package security

import "github.com/microcosm-cc/bluemonday"

// ContentSanitizerService はプロフィールコンテンツのサニタイズ機能の
// インターフェースを定義する。ページ保存前に使用される。
type ContentSanitizerService interface {
	// Sanitize はbio等のリッチテキストをサニタイズして安全なHTMLを返す。
	// 許可タグ（p, br, a, ul, ol, li, strong, em）のみを通過させ、
	// script, iframe, styleタグおよびon*イベント属性を除去する。
	// aタグにはtarget="_blank"とrel="noopener noreferrer"が自動付与される。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(rawHTML string) string

	// StripTags はタグを全て除去しプレーンテキストを返す。
	// 名前・肩書き・タグラインなど、マークアップを持たないフィールドに使用する。
	StripTags(raw string) string
}

// contentSanitizer はContentSanitizerServiceの実装。
// bluemondayのポリシーはスレッドセーフであり、1インスタンスを共有してよい。
type contentSanitizer struct {
	richPolicy *bluemonday.Policy
	textPolicy *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerServiceの新しいインスタンスを生成する。
// richPolicyの内容:
//   - 許可タグ: p, br, a, ul, ol, li, strong, em
//   - script, iframe, style等は許可リスト外のため自動的に除去される
//   - aタグ: href属性のみ許可、相対URL不許可、
//     target="_blank" と rel="noreferrer noopener" を強制付与
func NewContentSanitizer() *contentSanitizer {
	p := bluemonday.NewPolicy()

	p.AllowElements("p", "br", "ul", "ol", "li", "strong", "em")

	p.AllowAttrs("href").OnElements("a")
	p.AllowStandardURLs()
	p.AllowRelativeURLs(false)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoReferrerOnLinks(true)

	return &contentSanitizer{
		richPolicy: p,
		textPolicy: bluemonday.StrictPolicy(),
	}
}

// Sanitize はリッチテキストをサニタイズして安全なHTMLを返す。
func (s *contentSanitizer) Sanitize(rawHTML string) string {
	return s.richPolicy.Sanitize(rawHTML)
}

// StripTags はタグを全て除去しプレーンテキストを返す。
func (s *contentSanitizer) StripTags(raw string) string {
	return s.textPolicy.Sanitize(raw)
}
