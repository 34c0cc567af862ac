package challengedb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Black-And-White-Club/ctf-platform/app/shared/pgerr"
	"github.com/uptrace/bun"
)

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new challenge repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

// resolveDB returns the provided db handle, falling back to the repository's
// default connection if db is nil.
func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

// GetByID retrieves a challenge with its category.
func (r *Impl) GetByID(ctx context.Context, db bun.IDB, id int64) (*Challenge, error) {
	challenge := new(Challenge)
	err := r.resolveDB(db).NewSelect().
		Model(challenge).
		Relation("Category").
		Where("c.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get challenge %d: %w", id, err)
	}
	return challenge, nil
}

// List returns challenges ordered by category then ID.
func (r *Impl) List(ctx context.Context, db bun.IDB, includeHidden bool) ([]Challenge, error) {
	var challenges []Challenge
	q := r.resolveDB(db).NewSelect().
		Model(&challenges).
		Relation("Category").
		OrderExpr("c.category_id ASC, c.id ASC")
	if !includeHidden {
		q = q.Where("c.is_hidden = FALSE")
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list challenges: %w", err)
	}
	return challenges, nil
}

// ListIDs returns every challenge ID in ascending order.
func (r *Impl) ListIDs(ctx context.Context, db bun.IDB) ([]int64, error) {
	var ids []int64
	err := r.resolveDB(db).NewSelect().
		Model((*Challenge)(nil)).
		Column("id").
		Order("id ASC").
		Scan(ctx, &ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list challenge ids: %w", err)
	}
	return ids, nil
}

// Create inserts a challenge and fills in its ID.
func (r *Impl) Create(ctx context.Context, db bun.IDB, challenge *Challenge) error {
	_, err := r.resolveDB(db).NewInsert().
		Model(challenge).
		Returning("id").
		Exec(ctx)
	if err != nil {
		if pgerr.IsForeignKeyViolation(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to create challenge: %w", err)
	}
	return nil
}

// Update applies the non-nil fields of an admin edit and bumps updated_at.
func (r *Impl) Update(ctx context.Context, db bun.IDB, id int64, fields *ChallengeUpdateFields, now time.Time) error {
	q := r.resolveDB(db).NewUpdate().
		Model((*Challenge)(nil)).
		Set("updated_at = ?", now).
		Where("id = ?", id)

	if fields.Title != nil {
		q = q.Set("title = ?", *fields.Title)
	}
	if fields.Description != nil {
		q = q.Set("description = ?", *fields.Description)
	}
	if fields.Flag != nil {
		q = q.Set("flag = ?", *fields.Flag)
	}
	if fields.BasePoints != nil {
		q = q.Set("base_points = ?", *fields.BasePoints)
	}
	if fields.Difficulty != nil {
		q = q.Set("difficulty = ?", *fields.Difficulty)
	}
	if fields.CategoryID != nil {
		q = q.Set("category_id = ?", *fields.CategoryID)
	}
	if fields.IsHidden != nil {
		q = q.Set("is_hidden = ?", *fields.IsHidden)
	}
	if fields.Hints != nil {
		if len(*fields.Hints) == 0 {
			q = q.Set("hints = NULL")
		} else {
			raw, err := json.Marshal(*fields.Hints)
			if err != nil {
				return fmt.Errorf("failed to encode hints: %w", err)
			}
			q = q.Set("hints = ?::jsonb", string(raw))
		}
	}
	if fields.AttachmentFilename != nil {
		q = q.Set("attachment_filename = NULLIF(?, '')", *fields.AttachmentFilename)
	}

	result, err := q.Exec(ctx)
	if err != nil {
		if pgerr.IsForeignKeyViolation(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to update challenge %d: %w", id, err)
	}
	return requireAffected(result)
}

// Delete removes a challenge. Its submissions go with it through the foreign key.
func (r *Impl) Delete(ctx context.Context, db bun.IDB, id int64) error {
	result, err := r.resolveDB(db).NewDelete().
		Model((*Challenge)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete challenge %d: %w", id, err)
	}
	return requireAffected(result)
}

// LockByID reads a challenge under SELECT ... FOR UPDATE. Must run inside a
// transaction for the lock to outlive the statement.
func (r *Impl) LockByID(ctx context.Context, db bun.IDB, id int64) (*Challenge, error) {
	challenge := new(Challenge)
	err := r.resolveDB(db).NewSelect().
		Model(challenge).
		Where("c.id = ?", id).
		For("UPDATE").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock challenge %d: %w", id, err)
	}
	return challenge, nil
}

// RecordSolve increments solved_count and, when the row moves from zero to one
// solver, assigns first blood to userID. Returns the new solved_count.
func (r *Impl) RecordSolve(ctx context.Context, db bun.IDB, id, userID int64) (int, error) {
	var solved int
	err := r.resolveDB(db).NewUpdate().
		Model((*Challenge)(nil)).
		Set("solved_count = solved_count + 1").
		Set("first_blood_user_id = CASE WHEN solved_count = 0 THEN ? ELSE first_blood_user_id END", userID).
		Where("id = ?", id).
		Returning("solved_count").
		Scan(ctx, &solved)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("failed to record solve on challenge %d: %w", id, err)
	}
	return solved, nil
}

// SetScore persists a recomputed point value and solver count.
func (r *Impl) SetScore(ctx context.Context, db bun.IDB, id int64, points, solvedCount int) error {
	result, err := r.resolveDB(db).NewUpdate().
		Model((*Challenge)(nil)).
		Set("points = ?", points).
		Set("solved_count = ?", solvedCount).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to set score on challenge %d: %w", id, err)
	}
	return requireAffected(result)
}

// Count returns the number of challenges.
func (r *Impl) Count(ctx context.Context, db bun.IDB) (int, error) {
	n, err := r.resolveDB(db).NewSelect().Model((*Challenge)(nil)).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count challenges: %w", err)
	}
	return n, nil
}

// CountByDifficulty groups challenges by difficulty.
func (r *Impl) CountByDifficulty(ctx context.Context, db bun.IDB) ([]DifficultyCount, error) {
	var out []DifficultyCount
	err := r.resolveDB(db).NewSelect().
		Model((*Challenge)(nil)).
		ColumnExpr("c.difficulty AS difficulty").
		ColumnExpr("count(*) AS count").
		GroupExpr("c.difficulty").
		OrderExpr("c.difficulty ASC").
		Scan(ctx, &out)
	if err != nil {
		return nil, fmt.Errorf("failed to count challenges by difficulty: %w", err)
	}
	return out, nil
}

func requireAffected(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNoRowsAffected
	}
	return nil
}
