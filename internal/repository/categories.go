package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/blockedby/jobpost/internal/catalog"
	"github.com/blockedby/jobpost/internal/models"
)

// ErrCategoryNotFound is returned when a category id does not exist.
var ErrCategoryNotFound = catalog.ErrNotFound

// CategoriesRepository reads the specializations table.
type CategoriesRepository struct {
	pool *pgxpool.Pool
}

// NewCategoriesRepository creates a new categories repository
func NewCategoriesRepository(pool *pgxpool.Pool) *CategoriesRepository {
	return &CategoriesRepository{pool: pool}
}

// ListCategories returns all categories ordered by id
func (r *CategoriesRepository) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, minimum_rate
		FROM categories
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var list []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.MinimumRate); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		list = append(list, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return list, nil
}

// GetByID returns one category
func (r *CategoriesRepository) GetByID(ctx context.Context, id int) (*models.Category, error) {
	var c models.Category
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, minimum_rate FROM categories WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.MinimumRate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	return &c, nil
}

// Upsert inserts or renames a category. Used to seed from the catalog file.
func (r *CategoriesRepository) Upsert(ctx context.Context, c models.Category) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO categories (id, name, minimum_rate)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, minimum_rate = EXCLUDED.minimum_rate
	`, c.ID, c.Name, c.MinimumRate)
	if err != nil {
		return fmt.Errorf("upsert category %d: %w", c.ID, err)
	}
	return nil
}
