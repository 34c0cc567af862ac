package userdb

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// FakeRepository is a fake implementation of Repository for testing.
// Unset functions behave like an empty table.
type FakeRepository struct {
	trace []string

	GetByIDFn        func(ctx context.Context, db bun.IDB, id int64) (*User, error)
	GetByUsernameFn  func(ctx context.Context, db bun.IDB, username string) (*User, error)
	GetByEmailFn     func(ctx context.Context, db bun.IDB, email string) (*User, error)
	CreateFn         func(ctx context.Context, db bun.IDB, user *User) error
	UpdateFn         func(ctx context.Context, db bun.IDB, id int64, fields *UserUpdateFields) error
	DeleteFn         func(ctx context.Context, db bun.IDB, id int64) error
	ListFn           func(ctx context.Context, db bun.IDB, offset, limit int) ([]User, int, error)
	ListAllFn        func(ctx context.Context, db bun.IDB) ([]User, error)
	TouchLastLoginFn func(ctx context.Context, db bun.IDB, id int64, at time.Time) error
	AddScoreFn       func(ctx context.Context, db bun.IDB, id int64, delta int) error
	LockScoresFn     func(ctx context.Context, db bun.IDB) error
	SetScoresFn      func(ctx context.Context, db bun.IDB, scores []UserScore) error
	ReleaseSolvesFn  func(ctx context.Context, db bun.IDB, id int64) (int, error)
	CountFn          func(ctx context.Context, db bun.IDB) (int, error)
	CountSinceFn     func(ctx context.Context, db bun.IDB, since time.Time) (int, error)
	DailySignupsFn   func(ctx context.Context, db bun.IDB, since time.Time) ([]DailyCount, error)
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

func (f *FakeRepository) GetByID(ctx context.Context, db bun.IDB, id int64) (*User, error) {
	f.record("GetByID")
	if f.GetByIDFn != nil {
		return f.GetByIDFn(ctx, db, id)
	}
	return nil, ErrNotFound
}

func (f *FakeRepository) GetByUsername(ctx context.Context, db bun.IDB, username string) (*User, error) {
	f.record("GetByUsername")
	if f.GetByUsernameFn != nil {
		return f.GetByUsernameFn(ctx, db, username)
	}
	return nil, ErrNotFound
}

func (f *FakeRepository) GetByEmail(ctx context.Context, db bun.IDB, email string) (*User, error) {
	f.record("GetByEmail")
	if f.GetByEmailFn != nil {
		return f.GetByEmailFn(ctx, db, email)
	}
	return nil, ErrNotFound
}

func (f *FakeRepository) Create(ctx context.Context, db bun.IDB, user *User) error {
	f.record("Create")
	if f.CreateFn != nil {
		return f.CreateFn(ctx, db, user)
	}
	return nil
}

func (f *FakeRepository) Update(ctx context.Context, db bun.IDB, id int64, fields *UserUpdateFields) error {
	f.record("Update")
	if f.UpdateFn != nil {
		return f.UpdateFn(ctx, db, id, fields)
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

func (f *FakeRepository) List(ctx context.Context, db bun.IDB, offset, limit int) ([]User, int, error) {
	f.record("List")
	if f.ListFn != nil {
		return f.ListFn(ctx, db, offset, limit)
	}
	return nil, 0, nil
}

func (f *FakeRepository) ListAll(ctx context.Context, db bun.IDB) ([]User, error) {
	f.record("ListAll")
	if f.ListAllFn != nil {
		return f.ListAllFn(ctx, db)
	}
	return nil, nil
}

func (f *FakeRepository) TouchLastLogin(ctx context.Context, db bun.IDB, id int64, at time.Time) error {
	f.record("TouchLastLogin")
	if f.TouchLastLoginFn != nil {
		return f.TouchLastLoginFn(ctx, db, id, at)
	}
	return nil
}

func (f *FakeRepository) AddScore(ctx context.Context, db bun.IDB, id int64, delta int) error {
	f.record("AddScore")
	if f.AddScoreFn != nil {
		return f.AddScoreFn(ctx, db, id, delta)
	}
	return nil
}

func (f *FakeRepository) LockScores(ctx context.Context, db bun.IDB) error {
	f.record("LockScores")
	if f.LockScoresFn != nil {
		return f.LockScoresFn(ctx, db)
	}
	return nil
}

func (f *FakeRepository) SetScores(ctx context.Context, db bun.IDB, scores []UserScore) error {
	f.record("SetScores")
	if f.SetScoresFn != nil {
		return f.SetScoresFn(ctx, db, scores)
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

func (f *FakeRepository) CountSince(ctx context.Context, db bun.IDB, since time.Time) (int, error) {
	f.record("CountSince")
	if f.CountSinceFn != nil {
		return f.CountSinceFn(ctx, db, since)
	}
	return 0, nil
}

func (f *FakeRepository) DailySignups(ctx context.Context, db bun.IDB, since time.Time) ([]DailyCount, error) {
	f.record("DailySignups")
	if f.DailySignupsFn != nil {
		return f.DailySignupsFn(ctx, db, since)
	}
	return nil, nil
}

// Ensure the fake actually satisfies the interface
var _ Repository = (*FakeRepository)(nil)

func (f *FakeRepository) ReleaseSolves(ctx context.Context, db bun.IDB, id int64) (int, error) {
	f.record("ReleaseSolves")
	if f.ReleaseSolvesFn != nil {
		return f.ReleaseSolvesFn(ctx, db, id)
	}
	return 0, nil
}
