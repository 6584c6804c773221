package model

import "time"

// ConfigVersion はtheme_dataドキュメントのスキーマ世代を示す識別子。
// 現行世代は "v1" のみ。
const ConfigVersion = "v1"

// DefaultThemeCategory はテーマカテゴリ未指定時のデフォルト値。
const DefaultThemeCategory = "freelancers"

// Page は1ユーザーの公開プロフィールページの永続化された設定を表す。
// Profileと1対1で対応し、UserIDがユニークキーとなる。
// 保存はUserIDをキーとした全行置換UPSERTであり、下書き状態は存在しない
// （保存＝公開、IsPublishedは常にtrue）。
type Page struct {
	ID            string
	UserID        string
	Name          string
	Profession    string
	Tagline       string
	Bio           string
	ProfileImage  string
	Email         string
	Phone         string
	CTAText       string
	CTALink       string
	Theme         string
	ThemeCategory string
	// ThemeData はテーマ固有の半構造化ドキュメント。
	// 常にconfig_version識別子を持つ。
	ThemeData   map[string]any
	IsPublished bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SocialLink はページに紐づくSNSリンクを表す。
// DisplayOrderは保存操作ごとに0始まりの連番で振り直される。
// 部分更新はサポートせず、保存のたびに全削除・全再挿入される。
type SocialLink struct {
	ID           string
	PageID       string
	Platform     string
	URL          string
	DisplayOrder int
	CreatedAt    time.Time
}

// CustomLink はページに紐づく任意リンクを表す。
// 並び順の扱いはSocialLinkと同一（全置換、0始まり連番）。
// FaviconURLは保存時にベストエフォートで解決され、失敗時は空のまま。
type CustomLink struct {
	ID           string
	PageID       string
	Title        string
	URL          string
	FaviconURL   string
	DisplayOrder int
	CreatedAt    time.Time
}
