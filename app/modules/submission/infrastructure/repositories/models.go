package submissiondb

import (
	"time"

	"github.com/uptrace/bun"
)

// Submission is one row of the append-only ledger of flag attempts.
type Submission struct {
	bun.BaseModel `bun:"table:submissions,alias:s"`

	ID            int64     `bun:"id,pk,autoincrement"`
	UserID        int64     `bun:"user_id,notnull"`
	ChallengeID   int64     `bun:"challenge_id,notnull"`
	FlagSubmitted string    `bun:"flag_submitted,notnull"`
	IsCorrect     bool      `bun:"is_correct,notnull,default:false"`
	SubmittedAt   time.Time `bun:"submitted_at,notnull,default:current_timestamp"`

	// Populated by the listing queries.
	Username       string `bun:"username,scanonly"`
	ChallengeTitle string `bun:"challenge_title,scanonly"`
}

// ListFilter narrows a submission listing. Zero values mean no filter.
type ListFilter struct {
	UserID      int64
	ChallengeID int64
	Since       time.Time
	CorrectOnly bool
}

// Solve is one distinct (user, challenge) correct pair with the challenge's
// current point value.
type Solve struct {
	UserID      int64 `bun:"user_id"`
	ChallengeID int64 `bun:"challenge_id"`
	Points      int   `bun:"points"`
}

// Counts is the totals part of the submission statistics.
type Counts struct {
	Total   int `bun:"total"`
	Correct int `bun:"correct"`
}
