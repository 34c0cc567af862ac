package leaderboarddb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
)

// Impl implements Repository.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new leaderboard repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db != nil {
		return db
	}
	return r.db
}

const solvedCountExpr = "count(DISTINCT s.challenge_id) FILTER (WHERE s.is_correct)"

// globalOrder is shared by Global and UserRank so a user's rank always
// matches their position on the board.
const globalOrder = "u.score DESC, " + solvedCountExpr + " DESC, u.id ASC"

func (r *Impl) globalQuery(db bun.IDB) *bun.SelectQuery {
	return db.NewSelect().
		TableExpr("users AS u").
		ColumnExpr("u.id AS user_id").
		ColumnExpr("u.username").
		ColumnExpr("u.score").
		ColumnExpr(solvedCountExpr + " AS solved_count").
		ColumnExpr("max(s.submitted_at) FILTER (WHERE s.is_correct) AS last_solve").
		Join("LEFT JOIN submissions AS s ON s.user_id = u.id").
		Where("u.is_admin = FALSE").
		GroupExpr("u.id")
}

// Global returns one page of the global board and the number of ranked users.
func (r *Impl) Global(ctx context.Context, db bun.IDB, offset, limit int) ([]GlobalRow, int, error) {
	db = r.resolveDB(db)

	total, err := db.NewSelect().
		TableExpr("users AS u").
		Where("u.is_admin = FALSE").
		Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count ranked users: %w", err)
	}

	var rows []GlobalRow
	if err := r.globalQuery(db).
		OrderExpr(globalOrder).
		Offset(offset).
		Limit(limit).
		Scan(ctx, &rows); err != nil {
		return nil, 0, fmt.Errorf("failed to load global leaderboard: %w", err)
	}
	return rows, total, nil
}

// ByCategory sums the current points of each user's distinct solves in a
// category. Users without a solve there are left out.
func (r *Impl) ByCategory(ctx context.Context, db bun.IDB, categoryID int64) ([]CategoryRow, error) {
	solved := r.resolveDB(db).NewSelect().
		TableExpr("submissions AS s").
		Distinct().
		ColumnExpr("s.user_id").
		ColumnExpr("s.challenge_id").
		Join("JOIN challenges AS c ON c.id = s.challenge_id").
		Where("s.is_correct").
		Where("c.category_id = ?", categoryID)

	var rows []CategoryRow
	err := r.resolveDB(db).NewSelect().
		With("solved", solved).
		TableExpr("solved AS sv").
		ColumnExpr("u.id AS user_id").
		ColumnExpr("u.username").
		ColumnExpr("sum(c.points) AS score").
		ColumnExpr("count(*) AS solved_count").
		Join("JOIN users AS u ON u.id = sv.user_id").
		Join("JOIN challenges AS c ON c.id = sv.challenge_id").
		Where("u.is_admin = FALSE").
		GroupExpr("u.id, u.username").
		OrderExpr("score DESC, u.id ASC").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("failed to load category leaderboard: %w", err)
	}
	return rows, nil
}

// ByChallenge lists a challenge's correct submissions in solve order.
func (r *Impl) ByChallenge(ctx context.Context, db bun.IDB, challengeID int64) ([]SolveRow, error) {
	var rows []SolveRow
	err := r.resolveDB(db).NewSelect().
		TableExpr("submissions AS s").
		ColumnExpr("s.user_id").
		ColumnExpr("u.username").
		ColumnExpr("s.submitted_at").
		Join("JOIN users AS u ON u.id = s.user_id").
		Where("s.challenge_id = ?", challengeID).
		Where("s.is_correct").
		OrderExpr("s.submitted_at ASC, s.id ASC").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("failed to load challenge leaderboard: %w", err)
	}
	return rows, nil
}

// UserRank returns the user's 1-based position on the global board, zero
// when the user is not ranked (admins, unknown ids).
func (r *Impl) UserRank(ctx context.Context, db bun.IDB, userID int64) (int, error) {
	db = r.resolveDB(db)

	ranked := r.globalQuery(db).
		ColumnExpr("row_number() OVER (ORDER BY " + globalOrder + ") AS rank")

	var rank int
	err := db.NewSelect().
		With("ranked", ranked).
		TableExpr("ranked").
		Column("rank").
		Where("user_id = ?", userID).
		Scan(ctx, &rank)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to rank user %d: %w", userID, err)
	}
	return rank, nil
}

// CategoryExists reports whether the category exists.
func (r *Impl) CategoryExists(ctx context.Context, db bun.IDB, categoryID int64) (bool, error) {
	ok, err := r.resolveDB(db).NewSelect().
		TableExpr("categories").
		Where("id = ?", categoryID).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check category %d: %w", categoryID, err)
	}
	return ok, nil
}

// ChallengeExists reports whether the challenge exists. Hidden challenges
// only count when includeHidden is set.
func (r *Impl) ChallengeExists(ctx context.Context, db bun.IDB, challengeID int64, includeHidden bool) (bool, error) {
	q := r.resolveDB(db).NewSelect().
		TableExpr("challenges").
		Where("id = ?", challengeID)
	if !includeHidden {
		q = q.Where("is_hidden = FALSE")
	}
	ok, err := q.Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check challenge %d: %w", challengeID, err)
	}
	return ok, nil
}
