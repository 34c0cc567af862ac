package userdb

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// Repository defines the persistence contract for user data.
//
// Error semantics:
//   - ErrNotFound: requested record does not exist (Get* methods)
//   - ErrNoRowsAffected: UPDATE/DELETE matched no rows
//   - ErrDuplicate: username or email collides with another user
//   - other errors: infrastructure failures
//
// Every method takes the bun.IDB to run on; nil means the repository's own DB.
type Repository interface {
	GetByID(ctx context.Context, db bun.IDB, id int64) (*User, error)
	GetByUsername(ctx context.Context, db bun.IDB, username string) (*User, error)
	GetByEmail(ctx context.Context, db bun.IDB, email string) (*User, error)
	Create(ctx context.Context, db bun.IDB, user *User) error
	Update(ctx context.Context, db bun.IDB, id int64, fields *UserUpdateFields) error
	Delete(ctx context.Context, db bun.IDB, id int64) error
	List(ctx context.Context, db bun.IDB, offset, limit int) ([]User, int, error)
	ListAll(ctx context.Context, db bun.IDB) ([]User, error)
	TouchLastLogin(ctx context.Context, db bun.IDB, id int64, at time.Time) error

	// Score cache maintenance
	AddScore(ctx context.Context, db bun.IDB, id int64, delta int) error
	LockScores(ctx context.Context, db bun.IDB) error
	SetScores(ctx context.Context, db bun.IDB, scores []UserScore) error
	ReleaseSolves(ctx context.Context, db bun.IDB, id int64) (int, error)

	// Reporting
	Count(ctx context.Context, db bun.IDB) (int, error)
	CountSince(ctx context.Context, db bun.IDB, since time.Time) (int, error)
	DailySignups(ctx context.Context, db bun.IDB, since time.Time) ([]DailyCount, error)
}

// DailyCount is the number of rows created on a day (UTC, YYYY-MM-DD).
type DailyCount struct {
	Date  string `bun:"date" json:"date"`
	Count int    `bun:"count" json:"count"`
}
