package security

import (
	"strings"
	"testing"
)

var _ ContentSanitizerService = (*contentSanitizer)(nil)

func TestSanitize_ScriptTag_Removed(t *testing.T) {
	s := NewContentSanitizer()

	got := s.Sanitize(`<p>こんにちは</p><script>alert('xss')</script>`)

	if strings.Contains(got, "<script") {
		t.Errorf("Sanitize() = %q, script tag must be removed", got)
	}
	if !strings.Contains(got, "<p>こんにちは</p>") {
		t.Errorf("Sanitize() = %q, allowed tag must survive", got)
	}
}

func TestSanitize_AllowedTags_Preserved(t *testing.T) {
	s := NewContentSanitizer()

	input := `<p>自己紹介</p><ul><li><strong>強調</strong></li><li><em>斜体</em></li></ul><br>`
	got := s.Sanitize(input)

	for _, tag := range []string{"<p>", "<ul>", "<li>", "<strong>", "<em>"} {
		if !strings.Contains(got, tag) {
			t.Errorf("Sanitize() = %q, missing allowed tag %s", got, tag)
		}
	}
}

func TestSanitize_EventAttributes_Removed(t *testing.T) {
	s := NewContentSanitizer()

	got := s.Sanitize(`<p onclick="alert(1)">テキスト</p>`)

	if strings.Contains(got, "onclick") {
		t.Errorf("Sanitize() = %q, event attribute must be removed", got)
	}
}

func TestSanitize_IframeAndStyle_Removed(t *testing.T) {
	s := NewContentSanitizer()

	got := s.Sanitize(`<iframe src="https://evil.example.com"></iframe><style>body{display:none}</style><p>本文</p>`)

	if strings.Contains(got, "<iframe") || strings.Contains(got, "<style") {
		t.Errorf("Sanitize() = %q, iframe/style must be removed", got)
	}
}

// 完全修飾リンクにはtarget="_blank"とrel属性が強制付与される。
func TestSanitize_Links_GetNoopenerAttributes(t *testing.T) {
	s := NewContentSanitizer()

	got := s.Sanitize(`<a href="https://example.com">サイト</a>`)

	if !strings.Contains(got, `href="https://example.com"`) {
		t.Errorf("Sanitize() = %q, href must survive", got)
	}
	if !strings.Contains(got, `target="_blank"`) {
		t.Errorf("Sanitize() = %q, target=_blank must be added", got)
	}
	if !strings.Contains(got, "noopener") || !strings.Contains(got, "noreferrer") {
		t.Errorf("Sanitize() = %q, rel noopener noreferrer must be added", got)
	}
}

func TestSanitize_RelativeLink_HrefRemoved(t *testing.T) {
	s := NewContentSanitizer()

	got := s.Sanitize(`<a href="/internal/path">リンク</a>`)

	if strings.Contains(got, `href="/internal/path"`) {
		t.Errorf("Sanitize() = %q, relative href must be removed", got)
	}
}

func TestSanitize_Idempotent(t *testing.T) {
	s := NewContentSanitizer()

	input := `<p>本文 <a href="https://example.com">リンク</a></p><script>x()</script>`
	once := s.Sanitize(input)
	twice := s.Sanitize(once)

	if once != twice {
		t.Errorf("Sanitize is not idempotent: %q != %q", once, twice)
	}
}

func TestStripTags_RemovesAllMarkup(t *testing.T) {
	s := NewContentSanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"タグを全除去", "<b>山田</b> 太郎", "山田 太郎"},
		{"scriptごと除去", `山田<script>alert(1)</script>`, "山田"},
		{"プレーンテキストはそのまま", "デザイナー", "デザイナー"},
		{"空文字列", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.StripTags(tt.input); got != tt.want {
				t.Errorf("StripTags(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
