package challengedb

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// Repository defines the persistence contract for challenges and categories.
//
// Error semantics:
//   - ErrNotFound: requested record does not exist (Get* methods)
//   - ErrNoRowsAffected: UPDATE/DELETE matched no rows
//   - ErrDuplicate / ErrInUse: category constraints
//   - other errors: infrastructure failures
type Repository interface {
	// Challenges
	GetByID(ctx context.Context, db bun.IDB, id int64) (*Challenge, error)
	List(ctx context.Context, db bun.IDB, includeHidden bool) ([]Challenge, error)
	ListIDs(ctx context.Context, db bun.IDB) ([]int64, error)
	Create(ctx context.Context, db bun.IDB, challenge *Challenge) error
	Update(ctx context.Context, db bun.IDB, id int64, fields *ChallengeUpdateFields, now time.Time) error
	Delete(ctx context.Context, db bun.IDB, id int64) error

	// Ledger projections. Callers hold the row lock from LockByID.
	LockByID(ctx context.Context, db bun.IDB, id int64) (*Challenge, error)
	RecordSolve(ctx context.Context, db bun.IDB, id, userID int64) (int, error)
	SetScore(ctx context.Context, db bun.IDB, id int64, points, solvedCount int) error

	// Reporting
	Count(ctx context.Context, db bun.IDB) (int, error)
	CountByDifficulty(ctx context.Context, db bun.IDB) ([]DifficultyCount, error)

	// Categories
	ListCategories(ctx context.Context, db bun.IDB) ([]Category, error)
	GetCategory(ctx context.Context, db bun.IDB, id int64) (*Category, error)
	CreateCategory(ctx context.Context, db bun.IDB, category *Category) error
	UpdateCategory(ctx context.Context, db bun.IDB, id int64, name, description *string) error
	DeleteCategory(ctx context.Context, db bun.IDB, id int64) error
}
