package submissiondb

import (
	"context"

	"github.com/uptrace/bun"
)

// FakeRepository is a fake implementation of Repository for testing.
type FakeRepository struct {
	trace []string

	InsertFn               func(ctx context.Context, db bun.IDB, submission *Submission) error
	HasCorrectFn           func(ctx context.Context, db bun.IDB, userID, challengeID int64) (bool, error)
	ChallengeActivityFn    func(ctx context.Context, db bun.IDB, userID int64) (map[int64]bool, error)
	ListFn                 func(ctx context.Context, db bun.IDB, filter ListFilter, offset, limit int) ([]Submission, int, error)
	CountsFn               func(ctx context.Context, db bun.IDB, filter ListFilter) (Counts, error)
	CountDistinctSolversFn func(ctx context.Context, db bun.IDB, challengeID int64) (int, error)
	DistinctSolvesFn       func(ctx context.Context, db bun.IDB) ([]Solve, error)
}

// NewFakeRepository returns a fake with an empty call trace.
func NewFakeRepository() *FakeRepository {
	return &FakeRepository{trace: []string{}}
}

func (f *FakeRepository) record(step string) {
	f.trace = append(f.trace, step)
}

// Trace returns the sequence of method calls made to the fake.
func (f *FakeRepository) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *FakeRepository) Insert(ctx context.Context, db bun.IDB, submission *Submission) error {
	f.record("Insert")
	if f.InsertFn != nil {
		return f.InsertFn(ctx, db, submission)
	}
	return nil
}

func (f *FakeRepository) HasCorrect(ctx context.Context, db bun.IDB, userID, challengeID int64) (bool, error) {
	f.record("HasCorrect")
	if f.HasCorrectFn != nil {
		return f.HasCorrectFn(ctx, db, userID, challengeID)
	}
	return false, nil
}

func (f *FakeRepository) ChallengeActivity(ctx context.Context, db bun.IDB, userID int64) (map[int64]bool, error) {
	f.record("ChallengeActivity")
	if f.ChallengeActivityFn != nil {
		return f.ChallengeActivityFn(ctx, db, userID)
	}
	return map[int64]bool{}, nil
}

func (f *FakeRepository) List(ctx context.Context, db bun.IDB, filter ListFilter, offset, limit int) ([]Submission, int, error) {
	f.record("List")
	if f.ListFn != nil {
		return f.ListFn(ctx, db, filter, offset, limit)
	}
	return nil, 0, nil
}

func (f *FakeRepository) Counts(ctx context.Context, db bun.IDB, filter ListFilter) (Counts, error) {
	f.record("Counts")
	if f.CountsFn != nil {
		return f.CountsFn(ctx, db, filter)
	}
	return Counts{}, nil
}

func (f *FakeRepository) CountDistinctSolvers(ctx context.Context, db bun.IDB, challengeID int64) (int, error) {
	f.record("CountDistinctSolvers")
	if f.CountDistinctSolversFn != nil {
		return f.CountDistinctSolversFn(ctx, db, challengeID)
	}
	return 0, nil
}

func (f *FakeRepository) DistinctSolves(ctx context.Context, db bun.IDB) ([]Solve, error) {
	f.record("DistinctSolves")
	if f.DistinctSolvesFn != nil {
		return f.DistinctSolvesFn(ctx, db)
	}
	return nil, nil
}

var _ Repository = (*FakeRepository)(nil)
