package userservice

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	userdb "github.com/Black-And-White-Club/ctf-platform/app/modules/user/infrastructure/repositories"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/apperr"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/httpx"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace/noop"
)

func newTestService(repo userdb.Repository) *UserService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewUserService(repo, logger, telemetry.NewNoop(), noop.NewTracerProvider().Tracer("test"), nil)
}

func ptr[T any](v T) *T { return &v }

func TestUserService_UpdateUser(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		req       UpdateUserRequest
		setupRepo func(*userdb.FakeRepository)
		wantErr   error
		wantTrace []string
		verify    func(t *testing.T, user *userdb.User)
	}{
		{
			name: "success - trims username and returns fresh row",
			req:  UpdateUserRequest{Username: ptr("  bob "), IsAdmin: ptr(true)},
			setupRepo: func(f *userdb.FakeRepository) {
				f.UpdateFn = func(ctx context.Context, db bun.IDB, id int64, fields *userdb.UserUpdateFields) error {
					assert.Equal(t, "bob", *fields.Username)
					assert.True(t, *fields.IsAdmin)
					assert.Nil(t, fields.Email)
					return nil
				}
				f.GetByIDFn = func(ctx context.Context, db bun.IDB, id int64) (*userdb.User, error) {
					return &userdb.User{ID: id, Username: "bob", IsAdmin: true}, nil
				}
			},
			wantTrace: []string{"Update", "GetByID"},
			verify: func(t *testing.T, user *userdb.User) {
				assert.Equal(t, "bob", user.Username)
			},
		},
		{
			name:      "validation - score edits never reach the repo",
			req:       UpdateUserRequest{Username: ptr("bob"), Score: ptr(9999)},
			wantErr:   apperr.ErrValidation,
			wantTrace: []string{},
		},
		{
			name: "duplicate email maps to conflict",
			req:  UpdateUserRequest{Email: ptr("taken@example.com")},
			setupRepo: func(f *userdb.FakeRepository) {
				f.UpdateFn = func(ctx context.Context, db bun.IDB, id int64, fields *userdb.UserUpdateFields) error {
					return userdb.ErrDuplicate
				}
			},
			wantErr:   apperr.ErrConflict,
			wantTrace: []string{"Update"},
		},
		{
			name: "missing user",
			req:  UpdateUserRequest{IsActive: ptr(false)},
			setupRepo: func(f *userdb.FakeRepository) {
				f.UpdateFn = func(ctx context.Context, db bun.IDB, id int64, fields *userdb.UserUpdateFields) error {
					return userdb.ErrNoRowsAffected
				}
			},
			wantErr:   apperr.ErrNotFound,
			wantTrace: []string{"Update"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := userdb.NewFakeRepository()
			if tt.setupRepo != nil {
				tt.setupRepo(repo)
			}
			user, err := newTestService(repo).UpdateUser(ctx, 7, tt.req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				tt.verify(t, user)
			}
			assert.Equal(t, tt.wantTrace, repo.Trace())
		})
	}
}

func TestUserService_UpdateUserInvalidatesBoards(t *testing.T) {
	ctx := context.Background()
	repo := userdb.NewFakeRepository()
	repo.GetByIDFn = func(ctx context.Context, db bun.IDB, id int64) (*userdb.User, error) {
		return &userdb.User{ID: id, Username: "bob"}, nil
	}
	svc := newTestService(repo)
	changed := 0
	svc.OnChange(func(ctx context.Context) { changed++ })

	_, err := svc.UpdateUser(ctx, 7, UpdateUserRequest{IsAdmin: ptr(true)})
	require.NoError(t, err)
	assert.Equal(t, 1, changed)

	_, err = svc.UpdateUser(ctx, 7, UpdateUserRequest{Score: ptr(10)})
	require.Error(t, err)
	assert.Equal(t, 1, changed, "rejected edits leave the cache alone")
}

func TestUserService_DeleteUser(t *testing.T) {
	ctx := context.Background()

	t.Run("cannot delete self", func(t *testing.T) {
		repo := userdb.NewFakeRepository()
		err := newTestService(repo).DeleteUser(ctx, 3, 3)
		assert.ErrorIs(t, err, ErrCannotDeleteSelf)
		assert.Equal(t, "Cannot delete your own account!", apperr.PublicMessage(err))
		assert.Empty(t, repo.Trace())
	})

	t.Run("missing user", func(t *testing.T) {
		repo := userdb.NewFakeRepository()
		repo.DeleteFn = func(ctx context.Context, db bun.IDB, id int64) error {
			return userdb.ErrNoRowsAffected
		}
		err := newTestService(repo).DeleteUser(ctx, 1, 9)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("infrastructure error is wrapped", func(t *testing.T) {
		repo := userdb.NewFakeRepository()
		repo.DeleteFn = func(ctx context.Context, db bun.IDB, id int64) error {
			return errors.New("connection reset")
		}
		err := newTestService(repo).DeleteUser(ctx, 1, 9)
		require.Error(t, err)
		assert.False(t, apperr.IsDomain(err))
		assert.Contains(t, err.Error(), "connection reset")
	})

	t.Run("solves are released before the user goes", func(t *testing.T) {
		repo := userdb.NewFakeRepository()
		repo.ReleaseSolvesFn = func(ctx context.Context, db bun.IDB, id int64) (int, error) {
			assert.Equal(t, int64(9), id)
			return 2, nil
		}
		svc := newTestService(repo)
		changed := 0
		svc.OnChange(func(ctx context.Context) { changed++ })

		require.NoError(t, svc.DeleteUser(ctx, 1, 9))
		assert.Equal(t, []string{"ReleaseSolves", "Delete"}, repo.Trace())
		assert.Equal(t, 1, changed)
	})

	t.Run("release failure keeps the user", func(t *testing.T) {
		repo := userdb.NewFakeRepository()
		repo.ReleaseSolvesFn = func(ctx context.Context, db bun.IDB, id int64) (int, error) {
			return 0, errors.New("lock timeout")
		}
		svc := newTestService(repo)
		changed := 0
		svc.OnChange(func(ctx context.Context) { changed++ })

		err := svc.DeleteUser(ctx, 1, 9)
		require.Error(t, err)
		assert.Equal(t, []string{"ReleaseSolves"}, repo.Trace())
		assert.Zero(t, changed)
	})
}

func TestUserService_ListUsers(t *testing.T) {
	repo := userdb.NewFakeRepository()
	repo.ListFn = func(ctx context.Context, db bun.IDB, offset, limit int) ([]userdb.User, int, error) {
		assert.Equal(t, 20, offset)
		assert.Equal(t, 20, limit)
		return []userdb.User{{ID: 21}}, 41, nil
	}

	page, err := newTestService(repo).ListUsers(context.Background(), httpx.PageRequest{Page: 2, PerPage: 20})
	require.NoError(t, err)
	assert.Equal(t, 41, page.Total)
	assert.Equal(t, 3, page.Pages)
	assert.Equal(t, 2, page.CurrentPage)
	assert.Len(t, page.Users, 1)
}
