package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/hitoshi/biolink/internal/model"
)

// PostgresPageRepo はPostgreSQLを使用したページリポジトリ。
type PostgresPageRepo struct {
	db *sql.DB
}

// NewPostgresPageRepo はPostgresPageRepoを生成する。
func NewPostgresPageRepo(db *sql.DB) *PostgresPageRepo {
	return &PostgresPageRepo{db: db}
}

const pageColumns = `id, user_id, name, profession, tagline, bio, profile_image,
	email, phone, cta_text, cta_link, theme, theme_category, theme_data,
	is_published, created_at, updated_at`

// FindByUserID は指定ユーザーIDのページを取得する。見つからない場合はnilを返す。
func (r *PostgresPageRepo) FindByUserID(ctx context.Context, userID string) (*model.Page, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+pageColumns+` FROM pages WHERE user_id = $1`,
		userID,
	)

	page, err := scanPage(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find page by user ID: %w", err)
	}

	return page, nil
}

// Upsert はuser_idをキーとしてページを作成または全行置換する。
// 既存行がある場合はidとcreated_atを保持したまま全フィールドを上書きする。
// 反映後のページを返す。
func (r *PostgresPageRepo) Upsert(ctx context.Context, page *model.Page) (*model.Page, error) {
	themeData, err := json.Marshal(page.ThemeData)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal theme data: %w", err)
	}

	row := r.db.QueryRowContext(ctx,
		`INSERT INTO pages (
			id, user_id, name, profession, tagline, bio, profile_image,
			email, phone, cta_text, cta_link, theme, theme_category, theme_data,
			is_published, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (user_id) DO UPDATE SET
			name = EXCLUDED.name,
			profession = EXCLUDED.profession,
			tagline = EXCLUDED.tagline,
			bio = EXCLUDED.bio,
			profile_image = EXCLUDED.profile_image,
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			cta_text = EXCLUDED.cta_text,
			cta_link = EXCLUDED.cta_link,
			theme = EXCLUDED.theme,
			theme_category = EXCLUDED.theme_category,
			theme_data = EXCLUDED.theme_data,
			is_published = EXCLUDED.is_published,
			updated_at = EXCLUDED.updated_at
		RETURNING `+pageColumns,
		page.ID, page.UserID, page.Name, page.Profession, page.Tagline, page.Bio,
		page.ProfileImage, page.Email, page.Phone, page.CTAText, page.CTALink,
		page.Theme, page.ThemeCategory, themeData,
		page.IsPublished, page.CreatedAt, page.UpdatedAt,
	)

	saved, err := scanPage(row)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert page: %w", err)
	}

	return saved, nil
}

// rowScanner はsql.Rowとsql.Rowsの共通スキャンインターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

// scanPage は1行をmodel.Pageにスキャンする。theme_dataのJSONも復元する。
func scanPage(row rowScanner) (*model.Page, error) {
	page := &model.Page{}
	var themeData []byte

	err := row.Scan(
		&page.ID, &page.UserID, &page.Name, &page.Profession, &page.Tagline,
		&page.Bio, &page.ProfileImage, &page.Email, &page.Phone,
		&page.CTAText, &page.CTALink, &page.Theme, &page.ThemeCategory,
		&themeData, &page.IsPublished, &page.CreatedAt, &page.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(themeData) > 0 {
		if err := json.Unmarshal(themeData, &page.ThemeData); err != nil {
			return nil, fmt.Errorf("failed to unmarshal theme data: %w", err)
		}
	}

	return page, nil
}

// compile-time interface check
var _ PageRepository = (*PostgresPageRepo)(nil)
