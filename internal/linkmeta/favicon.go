// Package linkmeta はカスタムリンク先サイトのメタデータ（favicon）解決を提供する。
package linkmeta

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// maxHTMLSize はfavicon探索で読み込むHTMLの最大サイズ（256KB）。
// headの解析にページ全体は不要。
const maxHTMLSize = 256 * 1024

// resolveTimeout はfavicon解決のタイムアウト。
const resolveTimeout = 5 * time.Second

// SSRFGuard はfavicon解決が必要とするSSRF防止のインターフェース。
// security.SSRFGuardServiceの部分集合として定義する。
type SSRFGuard interface {
	NewSafeClient(timeout time.Duration) *http.Client
	ValidateURL(rawURL string) error
}

// FaviconResolverService はfavicon解決のインターフェース。
type FaviconResolverService interface {
	// ResolveFavicon はサイトURLからfaviconのURLを解決する。
	// 解決はベストエフォートであり、失敗時は空文字列を返す（エラーは返さない）。
	ResolveFavicon(ctx context.Context, siteURL string) string
}

// FaviconResolver はfavicon解決機能の実装。
// サイトのHTML headから<link rel="icon">系の宣言を探し、
// 見つからない場合は /favicon.ico を既定値として返す。
type FaviconResolver struct {
	ssrfGuard SSRFGuard
}

// NewFaviconResolver はFaviconResolverの新しいインスタンスを生成する。
func NewFaviconResolver(ssrfGuard SSRFGuard) *FaviconResolver {
	return &FaviconResolver{ssrfGuard: ssrfGuard}
}

// ResolveFavicon はサイトURLからfaviconのURLを解決する。
// 失敗してもリンク保存を妨げないよう、常に空文字列で縮退する。
func (f *FaviconResolver) ResolveFavicon(ctx context.Context, siteURL string) string {
	if siteURL == "" {
		return ""
	}

	// ユーザー入力URLへの外部リクエストのため、送信前にSSRF検証を行う
	if f.ssrfGuard != nil {
		if err := f.ssrfGuard.ValidateURL(siteURL); err != nil {
			slog.Warn("favicon解決: SSRFブロック", "url", siteURL, "error", err)
			return ""
		}
	}

	base, err := url.Parse(siteURL)
	if err != nil {
		return ""
	}

	if iconURL := f.discoverFromHTML(ctx, base, siteURL); iconURL != "" {
		return iconURL
	}

	return guessDefaultFaviconURL(base)
}

// discoverFromHTML はサイトのHTML headからicon宣言を探す。
func (f *FaviconResolver) discoverFromHTML(ctx context.Context, base *url.URL, siteURL string) string {
	client := f.getHTTPClient()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, siteURL, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", "Biolink/1.0 Link Preview")

	resp, err := client.Do(req)
	if err != nil {
		slog.Warn("favicon解決: HTTPリクエスト失敗", "url", siteURL, "error", err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ""
	}

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	if !strings.Contains(contentType, "text/html") {
		return ""
	}

	candidate := scanHeadForIcon(io.LimitReader(resp.Body, maxHTMLSize), base)
	if candidate == "" {
		return ""
	}

	// 発見したicon URLもユーザー制御値のため再検証する
	if f.ssrfGuard != nil {
		if err := f.ssrfGuard.ValidateURL(candidate); err != nil {
			slog.Warn("favicon解決: icon URLがSSRFブロック", "url", candidate, "error", err)
			return ""
		}
	}

	return candidate
}

// scanHeadForIcon はHTMLのheadを走査し、最初のicon宣言のhrefを絶対URLで返す。
// 対象rel: icon, shortcut icon, apple-touch-icon。bodyに入ったら走査を打ち切る。
func scanHeadForIcon(r io.Reader, base *url.URL) string {
	tokenizer := html.NewTokenizer(r)

	for {
		tokenType := tokenizer.Next()

		switch tokenType {
		case html.ErrorToken:
			return ""

		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := tokenizer.TagName()
			tagName := strings.ToLower(string(name))

			if tagName == "body" {
				return ""
			}

			if tagName != "link" || !hasAttr {
				continue
			}

			var rel, href string
			for {
				key, val, more := tokenizer.TagAttr()
				switch strings.ToLower(string(key)) {
				case "rel":
					rel = strings.ToLower(string(val))
				case "href":
					href = string(val)
				}
				if !more {
					break
				}
			}

			if href == "" || !isIconRel(rel) {
				continue
			}

			if resolved := resolveURL(base, href); resolved != "" {
				return resolved
			}

		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			if strings.ToLower(string(name)) == "head" {
				return ""
			}
		}
	}
}

// isIconRel はrel属性値がicon宣言かどうかを判定する。
func isIconRel(rel string) bool {
	switch rel {
	case "icon", "shortcut icon", "apple-touch-icon":
		return true
	default:
		return false
	}
}

// resolveURL は相対URLをベースURLを基準に絶対URLに解決する。
func resolveURL(base *url.URL, rawRef string) string {
	ref, err := url.Parse(rawRef)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

// guessDefaultFaviconURL はサイトURLから既定のfavicon URLを推測する。
func guessDefaultFaviconURL(base *url.URL) string {
	u := *base
	u.Path = "/favicon.ico"
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

// getHTTPClient はHTTPクライアントを取得する。
func (f *FaviconResolver) getHTTPClient() *http.Client {
	if f.ssrfGuard != nil {
		return f.ssrfGuard.NewSafeClient(resolveTimeout)
	}
	return &http.Client{Timeout: resolveTimeout}
}

// compile-time interface check
var _ FaviconResolverService = (*FaviconResolver)(nil)
