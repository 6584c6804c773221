// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/biolink/internal/model"
)

// ProfileRepository はプロフィールデータの永続化インターフェース。
type ProfileRepository interface {
	// FindByUsername は指定ユーザー名のプロフィールを取得する。
	// 照合は完全一致（大文字小文字の正規化は行わない）。見つからない場合はnilを返す。
	FindByUsername(ctx context.Context, username string) (*model.Profile, error)

	// FindByID は指定ID（IdPのsubject）のプロフィールを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Profile, error)

	// Create はプロフィールを作成する。
	// usernameのユニーク制約違反はエラーとして返る。
	Create(ctx context.Context, profile *model.Profile) error
}

// PageRepository はページデータの永続化インターフェース。
type PageRepository interface {
	// FindByUserID は指定ユーザーIDのページを取得する。見つからない場合はnilを返す。
	FindByUserID(ctx context.Context, userID string) (*model.Page, error)

	// Upsert はuser_idをキーとしてページを作成または全行置換する。
	// 同一ユーザーに対して行は常に1行のみ（INSERT ... ON CONFLICT (user_id) DO UPDATE）。
	// 反映後のページを返す。
	Upsert(ctx context.Context, page *model.Page) (*model.Page, error)
}

// SocialLinkRepository はSNSリンクの永続化インターフェース。
type SocialLinkRepository interface {
	// ListByPageID は指定ページのSNSリンクをdisplay_order昇順で返す。
	ListByPageID(ctx context.Context, pageID string) ([]model.SocialLink, error)

	// ReplaceByPageID は指定ページのSNSリンクを全置換する。
	// 既存行を全削除したうえで、入力順に0始まりのdisplay_orderを振って一括挿入する。
	// 削除と挿入は単一トランザクションで実行される。
	// 部分更新はサポートしない（空スライスは全削除を意味する）。
	ReplaceByPageID(ctx context.Context, pageID string, links []model.SocialLink) error
}

// CustomLinkRepository はカスタムリンクの永続化インターフェース。
// 置換のセマンティクスはSocialLinkRepositoryと同一。
type CustomLinkRepository interface {
	// ListByPageID は指定ページのカスタムリンクをdisplay_order昇順で返す。
	ListByPageID(ctx context.Context, pageID string) ([]model.CustomLink, error)

	// ReplaceByPageID は指定ページのカスタムリンクを全置換する。
	// セマンティクスはSocialLinkRepository.ReplaceByPageIDと同一。
	ReplaceByPageID(ctx context.Context, pageID string, links []model.CustomLink) error
}
