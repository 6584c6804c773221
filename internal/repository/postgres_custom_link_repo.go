package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/biolink/internal/model"
)

// PostgresCustomLinkRepo はPostgreSQLを使用したカスタムリンクリポジトリ。
type PostgresCustomLinkRepo struct {
	db *sql.DB
}

// NewPostgresCustomLinkRepo はPostgresCustomLinkRepoを生成する。
func NewPostgresCustomLinkRepo(db *sql.DB) *PostgresCustomLinkRepo {
	return &PostgresCustomLinkRepo{db: db}
}

// ListByPageID は指定ページのカスタムリンクをdisplay_order昇順で返す。
func (r *PostgresCustomLinkRepo) ListByPageID(ctx context.Context, pageID string) ([]model.CustomLink, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, page_id, title, url, favicon_url, display_order, created_at
		 FROM custom_links WHERE page_id = $1 ORDER BY display_order`,
		pageID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list custom links: %w", err)
	}
	defer rows.Close()

	var links []model.CustomLink
	for rows.Next() {
		var link model.CustomLink
		if err := rows.Scan(&link.ID, &link.PageID, &link.Title, &link.URL,
			&link.FaviconURL, &link.DisplayOrder, &link.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan custom link: %w", err)
		}
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate custom links: %w", err)
	}

	return links, nil
}

// ReplaceByPageID は指定ページのカスタムリンクを全置換する。
// セマンティクスはSocialLinkRepository.ReplaceByPageIDと同一。
func (r *PostgresCustomLinkRepo) ReplaceByPageID(ctx context.Context, pageID string, links []model.CustomLink) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM custom_links WHERE page_id = $1`, pageID,
	); err != nil {
		return fmt.Errorf("failed to delete custom links: %w", err)
	}

	for i, link := range links {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO custom_links (id, page_id, title, url, favicon_url, display_order, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			link.ID, pageID, link.Title, link.URL, link.FaviconURL, i, link.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to insert custom link: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// compile-time interface check
var _ CustomLinkRepository = (*PostgresCustomLinkRepo)(nil)
