package userdb

import (
	"context"
	"database/sql"
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

// NewRepository creates a new user repository.
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

func (r *Impl) getBy(ctx context.Context, db bun.IDB, column string, value any) (*User, error) {
	user := new(User)
	err := r.resolveDB(db).NewSelect().
		Model(user).
		Where("?TableAlias.? = ?", bun.Ident(column), value).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by %s: %w", column, err)
	}
	return user, nil
}

// GetByID retrieves a user by primary key.
func (r *Impl) GetByID(ctx context.Context, db bun.IDB, id int64) (*User, error) {
	return r.getBy(ctx, db, "id", id)
}

// GetByUsername retrieves a user by exact username.
func (r *Impl) GetByUsername(ctx context.Context, db bun.IDB, username string) (*User, error) {
	return r.getBy(ctx, db, "username", username)
}

// GetByEmail retrieves a user by exact email.
func (r *Impl) GetByEmail(ctx context.Context, db bun.IDB, email string) (*User, error) {
	return r.getBy(ctx, db, "email", email)
}

// Create inserts a new user and fills in its generated ID.
func (r *Impl) Create(ctx context.Context, db bun.IDB, user *User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	_, err := r.resolveDB(db).NewInsert().
		Model(user).
		Returning("id").
		Exec(ctx)
	if err != nil {
		if pgerr.IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// Update applies the non-nil fields of a partial update.
func (r *Impl) Update(ctx context.Context, db bun.IDB, id int64, fields *UserUpdateFields) error {
	if fields.IsEmpty() {
		return nil
	}

	q := r.resolveDB(db).NewUpdate().
		Model((*User)(nil)).
		Where("id = ?", id)

	if fields.Username != nil {
		q = q.Set("username = ?", *fields.Username)
	}
	if fields.Email != nil {
		q = q.Set("email = ?", *fields.Email)
	}
	if fields.PasswordHash != nil {
		q = q.Set("password_hash = ?", *fields.PasswordHash)
	}
	if fields.IsAdmin != nil {
		q = q.Set("is_admin = ?", *fields.IsAdmin)
	}
	if fields.IsActive != nil {
		q = q.Set("is_active = ?", *fields.IsActive)
	}

	result, err := q.Exec(ctx)
	if err != nil {
		if pgerr.IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to update user %d: %w", id, err)
	}
	return requireAffected(result)
}

// Delete removes a user. Submissions go with it through the foreign key.
func (r *Impl) Delete(ctx context.Context, db bun.IDB, id int64) error {
	result, err := r.resolveDB(db).NewDelete().
		Model((*User)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete user %d: %w", id, err)
	}
	return requireAffected(result)
}

// List returns a page of users ordered by ID along with the total count.
func (r *Impl) List(ctx context.Context, db bun.IDB, offset, limit int) ([]User, int, error) {
	var users []User
	total, err := r.resolveDB(db).NewSelect().
		Model(&users).
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		ScanAndCount(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

// ListAll returns every user ordered by ID.
func (r *Impl) ListAll(ctx context.Context, db bun.IDB) ([]User, error) {
	var users []User
	if err := r.resolveDB(db).NewSelect().Model(&users).Order("id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list all users: %w", err)
	}
	return users, nil
}

// TouchLastLogin records a successful login.
func (r *Impl) TouchLastLogin(ctx context.Context, db bun.IDB, id int64, at time.Time) error {
	result, err := r.resolveDB(db).NewUpdate().
		Model((*User)(nil)).
		Set("last_login = ?", at).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return requireAffected(result)
}

// AddScore credits delta points to the user's cached score.
func (r *Impl) AddScore(ctx context.Context, db bun.IDB, id int64, delta int) error {
	result, err := r.resolveDB(db).NewUpdate().
		Model((*User)(nil)).
		Set("score = score + ?", delta).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to add score to user %d: %w", id, err)
	}
	return requireAffected(result)
}

// LockScores row-locks every user until the transaction ends, so solves
// crediting a user wait for a score rewrite instead of being overwritten.
func (r *Impl) LockScores(ctx context.Context, db bun.IDB) error {
	var ids []int64
	if err := r.resolveDB(db).NewSelect().
		Model((*User)(nil)).
		Column("id").
		Order("id ASC").
		For("UPDATE").
		Scan(ctx, &ids); err != nil {
		return fmt.Errorf("failed to lock user scores: %w", err)
	}
	return nil
}

// ReleaseSolves takes a user's correct solves out of the challenge
// projections before the user is deleted. The user row is locked first, so a
// solve still in flight for the user commits before its submission is read.
// The affected challenge rows are then locked in ID order, solved_count drops
// by one on each, and first blood passes to the next earliest remaining
// solver. Returns the number of challenges touched.
func (r *Impl) ReleaseSolves(ctx context.Context, db bun.IDB, id int64) (int, error) {
	db = r.resolveDB(db)

	var self []int64
	if err := db.NewSelect().
		Model((*User)(nil)).
		Column("id").
		Where("id = ?", id).
		For("UPDATE").
		Scan(ctx, &self); err != nil {
		return 0, fmt.Errorf("failed to lock user %d: %w", id, err)
	}
	if len(self) == 0 {
		return 0, nil
	}

	solved := db.NewSelect().
		TableExpr("submissions AS s").
		ColumnExpr("s.challenge_id").
		Where("s.user_id = ?", id).
		Where("s.is_correct")

	var locked []int64
	if err := db.NewSelect().
		TableExpr("challenges AS c").
		ColumnExpr("c.id").
		Where("c.id IN (?)", solved).
		OrderExpr("c.id ASC").
		For("UPDATE").
		Scan(ctx, &locked); err != nil {
		return 0, fmt.Errorf("failed to lock challenges solved by user %d: %w", id, err)
	}
	if len(locked) == 0 {
		return 0, nil
	}

	nextBlood := db.NewSelect().
		TableExpr("submissions AS n").
		ColumnExpr("n.user_id").
		Where("n.challenge_id = c.id").
		Where("n.is_correct").
		Where("n.user_id <> ?", id).
		OrderExpr("n.submitted_at ASC, n.id ASC").
		Limit(1)

	_, err := db.NewUpdate().
		TableExpr("challenges AS c").
		Set("solved_count = GREATEST(c.solved_count - 1, 0)").
		Set("first_blood_user_id = CASE WHEN c.first_blood_user_id = ? THEN (?) ELSE c.first_blood_user_id END", id, nextBlood).
		Where("c.id IN (?)", bun.In(locked)).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to release solves of user %d: %w", id, err)
	}
	return len(locked), nil
}

// SetScores rewrites every user's cached score. Users absent from scores are
// reset to zero.
func (r *Impl) SetScores(ctx context.Context, db bun.IDB, scores []UserScore) error {
	db = r.resolveDB(db)
	if _, err := db.NewUpdate().
		Model((*User)(nil)).
		Set("score = 0").
		Where("score <> 0").
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to reset user scores: %w", err)
	}
	for _, s := range scores {
		if _, err := db.NewUpdate().
			Model((*User)(nil)).
			Set("score = ?", s.Score).
			Where("id = ?", s.UserID).
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to set score for user %d: %w", s.UserID, err)
		}
	}
	return nil
}

// Count returns the number of users.
func (r *Impl) Count(ctx context.Context, db bun.IDB) (int, error) {
	n, err := r.resolveDB(db).NewSelect().Model((*User)(nil)).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

// CountSince returns the number of users created at or after since.
func (r *Impl) CountSince(ctx context.Context, db bun.IDB, since time.Time) (int, error) {
	n, err := r.resolveDB(db).NewSelect().
		Model((*User)(nil)).
		Where("created_at >= ?", since).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count recent users: %w", err)
	}
	return n, nil
}

// DailySignups groups user creation by UTC day.
func (r *Impl) DailySignups(ctx context.Context, db bun.IDB, since time.Time) ([]DailyCount, error) {
	var out []DailyCount
	err := r.resolveDB(db).NewSelect().
		Model((*User)(nil)).
		ColumnExpr("to_char(date_trunc('day', u.created_at AT TIME ZONE 'UTC'), 'YYYY-MM-DD') AS date").
		ColumnExpr("count(*) AS count").
		Where("u.created_at >= ?", since).
		GroupExpr("1").
		OrderExpr("1 ASC").
		Scan(ctx, &out)
	if err != nil {
		return nil, fmt.Errorf("failed to group user signups: %w", err)
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
