package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/biolink/internal/model"
)

// PostgresSocialLinkRepo はPostgreSQLを使用したSNSリンクリポジトリ。
type PostgresSocialLinkRepo struct {
	db *sql.DB
}

// NewPostgresSocialLinkRepo はPostgresSocialLinkRepoを生成する。
func NewPostgresSocialLinkRepo(db *sql.DB) *PostgresSocialLinkRepo {
	return &PostgresSocialLinkRepo{db: db}
}

// ListByPageID は指定ページのSNSリンクをdisplay_order昇順で返す。
func (r *PostgresSocialLinkRepo) ListByPageID(ctx context.Context, pageID string) ([]model.SocialLink, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, page_id, platform, url, display_order, created_at
		 FROM social_links WHERE page_id = $1 ORDER BY display_order`,
		pageID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list social links: %w", err)
	}
	defer rows.Close()

	var links []model.SocialLink
	for rows.Next() {
		var link model.SocialLink
		if err := rows.Scan(&link.ID, &link.PageID, &link.Platform, &link.URL,
			&link.DisplayOrder, &link.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan social link: %w", err)
		}
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate social links: %w", err)
	}

	return links, nil
}

// ReplaceByPageID は指定ページのSNSリンクを全置換する。
// 削除と挿入は単一トランザクションで実行し、display_orderは入力順に0始まりで振り直す。
func (r *PostgresSocialLinkRepo) ReplaceByPageID(ctx context.Context, pageID string, links []model.SocialLink) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM social_links WHERE page_id = $1`, pageID,
	); err != nil {
		return fmt.Errorf("failed to delete social links: %w", err)
	}

	for i, link := range links {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO social_links (id, page_id, platform, url, display_order, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			link.ID, pageID, link.Platform, link.URL, i, link.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to insert social link: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// compile-time interface check
var _ SocialLinkRepository = (*PostgresSocialLinkRepo)(nil)
