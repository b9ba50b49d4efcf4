package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Jelisos/wallpaper-site-sub000/internal/domain/model"
)

var ErrContentItemNotFound = errors.New("content item not found")

type CatalogRepo struct {
	pool *pgxpool.Pool
}

func NewCatalogRepo(pool *pgxpool.Pool) *CatalogRepo {
	return &CatalogRepo{pool: pool}
}

// ListAll returns the full catalog snapshot. Paging over the snapshot is
// the delivery engine's job, not the catalog's.
func (r *CatalogRepo) ListAll(ctx context.Context) ([]model.ContentItem, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, name, path, width, height, category, tags, views, likes, created_at
FROM content_items
ORDER BY id
`)
	if err != nil {
		return nil, fmt.Errorf("list content items: %w", err)
	}
	defer rows.Close()

	var items []model.ContentItem
	for rows.Next() {
		var item model.ContentItem
		if err := rows.Scan(
			&item.ID,
			&item.Name,
			&item.Path,
			&item.Width,
			&item.Height,
			&item.Category,
			&item.Tags,
			&item.Views,
			&item.Likes,
			&item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan content item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate content items: %w", err)
	}

	return items, nil
}

func (r *CatalogRepo) Exists(ctx context.Context, itemID int64) (bool, error) {
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}
	if itemID <= 0 {
		return false, nil
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, `
SELECT EXISTS (SELECT 1 FROM content_items WHERE id = $1)
`, itemID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check content item existence: %w", err)
	}

	return exists, nil
}

// IncrementViews bumps the view counter. Counters are the only mutable
// part of a catalog row.
func (r *CatalogRepo) IncrementViews(ctx context.Context, itemID int64) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if itemID <= 0 {
		return fmt.Errorf("invalid content item id")
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE content_items SET views = views + 1 WHERE id = $1
`, itemID)
	if err != nil {
		return fmt.Errorf("increment views: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrContentItemNotFound
	}

	return nil
}
