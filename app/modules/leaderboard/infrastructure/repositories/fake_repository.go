package leaderboarddb

import (
	"context"

	"github.com/uptrace/bun"
)

// FakeRepository is a fake implementation of Repository for testing.
type FakeRepository struct {
	trace []string

	GlobalFn          func(ctx context.Context, db bun.IDB, offset, limit int) ([]GlobalRow, int, error)
	ByCategoryFn      func(ctx context.Context, db bun.IDB, categoryID int64) ([]CategoryRow, error)
	ByChallengeFn     func(ctx context.Context, db bun.IDB, challengeID int64) ([]SolveRow, error)
	UserRankFn        func(ctx context.Context, db bun.IDB, userID int64) (int, error)
	CategoryExistsFn  func(ctx context.Context, db bun.IDB, categoryID int64) (bool, error)
	ChallengeExistsFn func(ctx context.Context, db bun.IDB, challengeID int64, includeHidden bool) (bool, error)
}

// NewFakeRepository initializes a new FakeRepository.
func NewFakeRepository() *FakeRepository {
	return &FakeRepository{trace: []string{}}
}

func (f *FakeRepository) record(step string) {
	f.trace = append(f.trace, step)
}

// Trace returns the methods called, in order.
func (f *FakeRepository) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *FakeRepository) Global(ctx context.Context, db bun.IDB, offset, limit int) ([]GlobalRow, int, error) {
	f.record("Global")
	if f.GlobalFn != nil {
		return f.GlobalFn(ctx, db, offset, limit)
	}
	return nil, 0, nil
}

func (f *FakeRepository) ByCategory(ctx context.Context, db bun.IDB, categoryID int64) ([]CategoryRow, error) {
	f.record("ByCategory")
	if f.ByCategoryFn != nil {
		return f.ByCategoryFn(ctx, db, categoryID)
	}
	return nil, nil
}

func (f *FakeRepository) ByChallenge(ctx context.Context, db bun.IDB, challengeID int64) ([]SolveRow, error) {
	f.record("ByChallenge")
	if f.ByChallengeFn != nil {
		return f.ByChallengeFn(ctx, db, challengeID)
	}
	return nil, nil
}

func (f *FakeRepository) UserRank(ctx context.Context, db bun.IDB, userID int64) (int, error) {
	f.record("UserRank")
	if f.UserRankFn != nil {
		return f.UserRankFn(ctx, db, userID)
	}
	return 0, nil
}

func (f *FakeRepository) CategoryExists(ctx context.Context, db bun.IDB, categoryID int64) (bool, error) {
	f.record("CategoryExists")
	if f.CategoryExistsFn != nil {
		return f.CategoryExistsFn(ctx, db, categoryID)
	}
	return true, nil
}

func (f *FakeRepository) ChallengeExists(ctx context.Context, db bun.IDB, challengeID int64, includeHidden bool) (bool, error) {
	f.record("ChallengeExists")
	if f.ChallengeExistsFn != nil {
		return f.ChallengeExistsFn(ctx, db, challengeID, includeHidden)
	}
	return true, nil
}

var _ Repository = (*FakeRepository)(nil)
