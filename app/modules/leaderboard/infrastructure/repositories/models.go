package leaderboarddb

import "time"

// GlobalRow is one non-admin user on the global board.
type GlobalRow struct {
	UserID      int64      `bun:"user_id"`
	Username    string     `bun:"username"`
	Score       int        `bun:"score"`
	SolvedCount int        `bun:"solved_count"`
	LastSolve   *time.Time `bun:"last_solve"`
}

// CategoryRow is a user's standing within one category.
type CategoryRow struct {
	UserID      int64  `bun:"user_id"`
	Username    string `bun:"username"`
	Score       int    `bun:"score"`
	SolvedCount int    `bun:"solved_count"`
}

// SolveRow is one correct submission on a challenge.
type SolveRow struct {
	UserID      int64     `bun:"user_id"`
	Username    string    `bun:"username"`
	SubmittedAt time.Time `bun:"submitted_at"`
}
