package submissiondb

import (
	"context"

	"github.com/uptrace/bun"
)

// Repository defines the persistence contract for the submission ledger.
// Rows are only ever inserted; nothing here updates or deletes a submission.
type Repository interface {
	Insert(ctx context.Context, db bun.IDB, submission *Submission) error
	HasCorrect(ctx context.Context, db bun.IDB, userID, challengeID int64) (bool, error)
	ChallengeActivity(ctx context.Context, db bun.IDB, userID int64) (map[int64]bool, error)

	List(ctx context.Context, db bun.IDB, filter ListFilter, offset, limit int) ([]Submission, int, error)
	Counts(ctx context.Context, db bun.IDB, filter ListFilter) (Counts, error)

	CountDistinctSolvers(ctx context.Context, db bun.IDB, challengeID int64) (int, error)
	DistinctSolves(ctx context.Context, db bun.IDB) ([]Solve, error)
}
