package submissiondb

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new submission repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

// Insert appends a submission and fills in its ID.
func (r *Impl) Insert(ctx context.Context, db bun.IDB, submission *Submission) error {
	_, err := r.resolveDB(db).NewInsert().
		Model(submission).
		Returning("id").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to insert submission: %w", err)
	}
	return nil
}

// HasCorrect reports whether the user already has a correct submission for the challenge.
func (r *Impl) HasCorrect(ctx context.Context, db bun.IDB, userID, challengeID int64) (bool, error) {
	exists, err := r.resolveDB(db).NewSelect().
		Model((*Submission)(nil)).
		Where("s.user_id = ?", userID).
		Where("s.challenge_id = ?", challengeID).
		Where("s.is_correct = TRUE").
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check prior solve: %w", err)
	}
	return exists, nil
}

// ChallengeActivity maps every challenge the user submitted to to whether one
// of those submissions was correct.
func (r *Impl) ChallengeActivity(ctx context.Context, db bun.IDB, userID int64) (map[int64]bool, error) {
	var rows []struct {
		ChallengeID int64 `bun:"challenge_id"`
		Solved      bool  `bun:"solved"`
	}
	err := r.resolveDB(db).NewSelect().
		Model((*Submission)(nil)).
		ColumnExpr("s.challenge_id AS challenge_id").
		ColumnExpr("bool_or(s.is_correct) AS solved").
		Where("s.user_id = ?", userID).
		GroupExpr("s.challenge_id").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("failed to load activity for user %d: %w", userID, err)
	}

	activity := make(map[int64]bool, len(rows))
	for _, row := range rows {
		activity[row.ChallengeID] = row.Solved
	}
	return activity, nil
}

// List returns a page of submissions, newest first, with username and
// challenge title joined in.
func (r *Impl) List(ctx context.Context, db bun.IDB, filter ListFilter, offset, limit int) ([]Submission, int, error) {
	var submissions []Submission
	q := r.resolveDB(db).NewSelect().
		Model(&submissions).
		ColumnExpr("s.*").
		ColumnExpr("u.username AS username").
		ColumnExpr("c.title AS challenge_title").
		Join("JOIN users AS u ON u.id = s.user_id").
		Join("JOIN challenges AS c ON c.id = s.challenge_id").
		OrderExpr("s.submitted_at DESC, s.id DESC").
		Offset(offset).
		Limit(limit)
	q = applyFilter(q, filter)

	total, err := q.ScanAndCount(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list submissions: %w", err)
	}
	return submissions, total, nil
}

// Counts returns total and correct submissions matching filter. CorrectOnly is ignored.
func (r *Impl) Counts(ctx context.Context, db bun.IDB, filter ListFilter) (Counts, error) {
	var counts Counts
	filter.CorrectOnly = false
	q := r.resolveDB(db).NewSelect().
		Model((*Submission)(nil)).
		ColumnExpr("count(*) AS total").
		ColumnExpr("count(*) FILTER (WHERE s.is_correct) AS correct")
	q = applyFilter(q, filter)

	if err := q.Scan(ctx, &counts); err != nil {
		return Counts{}, fmt.Errorf("failed to count submissions: %w", err)
	}
	return counts, nil
}

// CountDistinctSolvers counts users with a correct submission on the challenge.
func (r *Impl) CountDistinctSolvers(ctx context.Context, db bun.IDB, challengeID int64) (int, error) {
	var n int
	err := r.resolveDB(db).NewSelect().
		Model((*Submission)(nil)).
		ColumnExpr("count(DISTINCT s.user_id)").
		Where("s.challenge_id = ?", challengeID).
		Where("s.is_correct = TRUE").
		Scan(ctx, &n)
	if err != nil {
		return 0, fmt.Errorf("failed to count solvers of challenge %d: %w", challengeID, err)
	}
	return n, nil
}

// DistinctSolves returns every distinct correct (user, challenge) pair with
// the challenge's current points.
func (r *Impl) DistinctSolves(ctx context.Context, db bun.IDB) ([]Solve, error) {
	var solves []Solve
	err := r.resolveDB(db).NewSelect().
		Model((*Submission)(nil)).
		Distinct().
		ColumnExpr("s.user_id AS user_id").
		ColumnExpr("s.challenge_id AS challenge_id").
		ColumnExpr("c.points AS points").
		Join("JOIN challenges AS c ON c.id = s.challenge_id").
		Where("s.is_correct = TRUE").
		OrderExpr("s.user_id ASC, s.challenge_id ASC").
		Scan(ctx, &solves)
	if err != nil {
		return nil, fmt.Errorf("failed to load distinct solves: %w", err)
	}
	return solves, nil
}

func applyFilter(q *bun.SelectQuery, filter ListFilter) *bun.SelectQuery {
	if filter.UserID != 0 {
		q = q.Where("s.user_id = ?", filter.UserID)
	}
	if filter.ChallengeID != 0 {
		q = q.Where("s.challenge_id = ?", filter.ChallengeID)
	}
	if !filter.Since.IsZero() {
		q = q.Where("s.submitted_at >= ?", filter.Since)
	}
	if filter.CorrectOnly {
		q = q.Where("s.is_correct = TRUE")
	}
	return q
}
