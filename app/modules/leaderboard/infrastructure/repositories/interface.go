package leaderboarddb

import (
	"context"

	"github.com/uptrace/bun"
)

// Repository reads the leaderboard projections. It never writes.
type Repository interface {
	Global(ctx context.Context, db bun.IDB, offset, limit int) ([]GlobalRow, int, error)
	ByCategory(ctx context.Context, db bun.IDB, categoryID int64) ([]CategoryRow, error)
	ByChallenge(ctx context.Context, db bun.IDB, challengeID int64) ([]SolveRow, error)
	UserRank(ctx context.Context, db bun.IDB, userID int64) (int, error)

	CategoryExists(ctx context.Context, db bun.IDB, categoryID int64) (bool, error)
	ChallengeExists(ctx context.Context, db bun.IDB, challengeID int64, includeHidden bool) (bool, error)
}
