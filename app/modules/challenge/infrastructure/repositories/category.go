package challengedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Black-And-White-Club/ctf-platform/app/shared/pgerr"
	"github.com/uptrace/bun"
)

// ListCategories returns every category ordered by ID.
func (r *Impl) ListCategories(ctx context.Context, db bun.IDB) ([]Category, error) {
	var categories []Category
	if err := r.resolveDB(db).NewSelect().Model(&categories).Order("id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// GetCategory retrieves a category by ID.
func (r *Impl) GetCategory(ctx context.Context, db bun.IDB, id int64) (*Category, error) {
	category := new(Category)
	err := r.resolveDB(db).NewSelect().Model(category).Where("id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get category %d: %w", id, err)
	}
	return category, nil
}

// CreateCategory inserts a category and fills in its ID.
func (r *Impl) CreateCategory(ctx context.Context, db bun.IDB, category *Category) error {
	if category.CreatedAt.IsZero() {
		category.CreatedAt = time.Now().UTC()
	}
	_, err := r.resolveDB(db).NewInsert().
		Model(category).
		Returning("id").
		Exec(ctx)
	if err != nil {
		if pgerr.IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

// UpdateCategory changes name and/or description.
func (r *Impl) UpdateCategory(ctx context.Context, db bun.IDB, id int64, name, description *string) error {
	if name == nil && description == nil {
		_, err := r.GetCategory(ctx, db, id)
		return err
	}

	q := r.resolveDB(db).NewUpdate().
		Model((*Category)(nil)).
		Where("id = ?", id)
	if name != nil {
		q = q.Set("name = ?", *name)
	}
	if description != nil {
		q = q.Set("description = ?", *description)
	}

	result, err := q.Exec(ctx)
	if err != nil {
		if pgerr.IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to update category %d: %w", id, err)
	}
	return requireAffected(result)
}

// DeleteCategory removes an unused category.
func (r *Impl) DeleteCategory(ctx context.Context, db bun.IDB, id int64) error {
	result, err := r.resolveDB(db).NewDelete().
		Model((*Category)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		if pgerr.IsForeignKeyViolation(err) {
			return ErrInUse
		}
		return fmt.Errorf("failed to delete category %d: %w", id, err)
	}
	return requireAffected(result)
}
