package challengedb

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// FakeRepository is a fake implementation of Repository for testing.
// Unset functions behave like an empty table.
type FakeRepository struct {
	trace []string

	GetByIDFn           func(ctx context.Context, db bun.IDB, id int64) (*Challenge, error)
	ListFn              func(ctx context.Context, db bun.IDB, includeHidden bool) ([]Challenge, error)
	ListIDsFn           func(ctx context.Context, db bun.IDB) ([]int64, error)
	CreateFn            func(ctx context.Context, db bun.IDB, challenge *Challenge) error
	UpdateFn            func(ctx context.Context, db bun.IDB, id int64, fields *ChallengeUpdateFields, now time.Time) error
	DeleteFn            func(ctx context.Context, db bun.IDB, id int64) error
	LockByIDFn          func(ctx context.Context, db bun.IDB, id int64) (*Challenge, error)
	RecordSolveFn       func(ctx context.Context, db bun.IDB, id, userID int64) (int, error)
	SetScoreFn          func(ctx context.Context, db bun.IDB, id int64, points, solvedCount int) error
	CountFn             func(ctx context.Context, db bun.IDB) (int, error)
	CountByDifficultyFn func(ctx context.Context, db bun.IDB) ([]DifficultyCount, error)
	ListCategoriesFn    func(ctx context.Context, db bun.IDB) ([]Category, error)
	GetCategoryFn       func(ctx context.Context, db bun.IDB, id int64) (*Category, error)
	CreateCategoryFn    func(ctx context.Context, db bun.IDB, category *Category) error
	UpdateCategoryFn    func(ctx context.Context, db bun.IDB, id int64, name, description *string) error
	DeleteCategoryFn    func(ctx context.Context, db bun.IDB, id int64) error
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

func (f *FakeRepository) GetByID(ctx context.Context, db bun.IDB, id int64) (*Challenge, error) {
	f.record("GetByID")
	if f.GetByIDFn != nil {
		return f.GetByIDFn(ctx, db, id)
	}
	return nil, ErrNotFound
}

func (f *FakeRepository) List(ctx context.Context, db bun.IDB, includeHidden bool) ([]Challenge, error) {
	f.record("List")
	if f.ListFn != nil {
		return f.ListFn(ctx, db, includeHidden)
	}
	return nil, nil
}

func (f *FakeRepository) ListIDs(ctx context.Context, db bun.IDB) ([]int64, error) {
	f.record("ListIDs")
	if f.ListIDsFn != nil {
		return f.ListIDsFn(ctx, db)
	}
	return nil, nil
}

func (f *FakeRepository) Create(ctx context.Context, db bun.IDB, challenge *Challenge) error {
	f.record("Create")
	if f.CreateFn != nil {
		return f.CreateFn(ctx, db, challenge)
	}
	return nil
}

func (f *FakeRepository) Update(ctx context.Context, db bun.IDB, id int64, fields *ChallengeUpdateFields, now time.Time) error {
	f.record("Update")
	if f.UpdateFn != nil {
		return f.UpdateFn(ctx, db, id, fields, now)
	}
	return nil
}

func (f *FakeRepository) Delete(ctx context.Context, db bun.IDB, id int64) error {
	f.record("Delete")
	if f.DeleteFn != nil {
		return f.DeleteFn(ctx, db, id)
	}
	return nil
}

func (f *FakeRepository) LockByID(ctx context.Context, db bun.IDB, id int64) (*Challenge, error) {
	f.record("LockByID")
	if f.LockByIDFn != nil {
		return f.LockByIDFn(ctx, db, id)
	}
	return nil, ErrNotFound
}

func (f *FakeRepository) RecordSolve(ctx context.Context, db bun.IDB, id, userID int64) (int, error) {
	f.record("RecordSolve")
	if f.RecordSolveFn != nil {
		return f.RecordSolveFn(ctx, db, id, userID)
	}
	return 1, nil
}

func (f *FakeRepository) SetScore(ctx context.Context, db bun.IDB, id int64, points, solvedCount int) error {
	f.record("SetScore")
	if f.SetScoreFn != nil {
		return f.SetScoreFn(ctx, db, id, points, solvedCount)
	}
	return nil
}

func (f *FakeRepository) Count(ctx context.Context, db bun.IDB) (int, error) {
	f.record("Count")
	if f.CountFn != nil {
		return f.CountFn(ctx, db)
	}
	return 0, nil
}

func (f *FakeRepository) CountByDifficulty(ctx context.Context, db bun.IDB) ([]DifficultyCount, error) {
	f.record("CountByDifficulty")
	if f.CountByDifficultyFn != nil {
		return f.CountByDifficultyFn(ctx, db)
	}
	return nil, nil
}

func (f *FakeRepository) ListCategories(ctx context.Context, db bun.IDB) ([]Category, error) {
	f.record("ListCategories")
	if f.ListCategoriesFn != nil {
		return f.ListCategoriesFn(ctx, db)
	}
	return nil, nil
}

func (f *FakeRepository) GetCategory(ctx context.Context, db bun.IDB, id int64) (*Category, error) {
	f.record("GetCategory")
	if f.GetCategoryFn != nil {
		return f.GetCategoryFn(ctx, db, id)
	}
	return nil, ErrNotFound
}

func (f *FakeRepository) CreateCategory(ctx context.Context, db bun.IDB, category *Category) error {
	f.record("CreateCategory")
	if f.CreateCategoryFn != nil {
		return f.CreateCategoryFn(ctx, db, category)
	}
	return nil
}

func (f *FakeRepository) UpdateCategory(ctx context.Context, db bun.IDB, id int64, name, description *string) error {
	f.record("UpdateCategory")
	if f.UpdateCategoryFn != nil {
		return f.UpdateCategoryFn(ctx, db, id, name, description)
	}
	return nil
}

func (f *FakeRepository) DeleteCategory(ctx context.Context, db bun.IDB, id int64) error {
	f.record("DeleteCategory")
	if f.DeleteCategoryFn != nil {
		return f.DeleteCategoryFn(ctx, db, id)
	}
	return nil
}

var _ Repository = (*FakeRepository)(nil)
