package authservice

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	authdomain "github.com/Black-And-White-Club/ctf-platform/app/modules/auth/domain"
	authjwt "github.com/Black-And-White-Club/ctf-platform/app/modules/auth/infrastructure/jwt"
	userdb "github.com/Black-And-White-Club/ctf-platform/app/modules/user/infrastructure/repositories"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret-at-least-32-chars-long!!"

var ghostClaims = authdomain.Claims{UserID: 77, Username: "ghost"}

type fakeRanker struct {
	rank int
	err  error
}

func (f fakeRanker) UserRank(context.Context, int64) (int, error) { return f.rank, f.err }

func newTestService(repo userdb.Repository, cfg Config, ranker Ranker) Service {
	cfg.BcryptCost = bcrypt.MinCost
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(authjwt.NewProvider(testSecret), repo, ranker, cfg, logger, noop.NewTracerProvider().Tracer("test"))
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestService_Register(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		cfg       Config
		req       RegisterRequest
		setupRepo func(*userdb.FakeRepository)
		wantErr   error
		wantID    int64
	}{
		{
			name: "success",
			cfg:  Config{RegistrationOpen: true},
			req:  RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "s3cretpw"},
			setupRepo: func(f *userdb.FakeRepository) {
				f.CreateFn = func(ctx context.Context, db bun.IDB, user *userdb.User) error {
					assert.Equal(t, "alice", user.Username)
					assert.False(t, user.IsAdmin)
					assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("s3cretpw")))
					user.ID = 11
					return nil
				}
			},
			wantID: 11,
		},
		{
			name:    "registration closed",
			cfg:     Config{RegistrationOpen: false},
			req:     RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "s3cretpw"},
			wantErr: apperr.ErrForbidden,
		},
		{
			name:    "missing field",
			cfg:     Config{RegistrationOpen: true},
			req:     RegisterRequest{Username: "alice", Password: "s3cretpw"},
			wantErr: apperr.ErrValidation,
		},
		{
			name: "username taken",
			cfg:  Config{RegistrationOpen: true},
			req:  RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "s3cretpw"},
			setupRepo: func(f *userdb.FakeRepository) {
				f.GetByUsernameFn = func(ctx context.Context, db bun.IDB, username string) (*userdb.User, error) {
					return &userdb.User{ID: 1, Username: username}, nil
				}
			},
			wantErr: ErrUsernameTaken,
		},
		{
			name: "unique race on insert",
			cfg:  Config{RegistrationOpen: true},
			req:  RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "s3cretpw"},
			setupRepo: func(f *userdb.FakeRepository) {
				f.CreateFn = func(ctx context.Context, db bun.IDB, user *userdb.User) error {
					return userdb.ErrDuplicate
				}
			},
			wantErr: apperr.ErrConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := userdb.NewFakeRepository()
			if tt.setupRepo != nil {
				tt.setupRepo(repo)
			}
			id, err := newTestService(repo, tt.cfg, nil).Register(ctx, tt.req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestService_LoginAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	stored := &userdb.User{
		ID:           5,
		Username:     "bob",
		Email:        "bob@example.com",
		PasswordHash: mustHash(t, "correct horse"),
		IsActive:     true,
	}

	repo := userdb.NewFakeRepository()
	repo.GetByUsernameFn = func(ctx context.Context, db bun.IDB, username string) (*userdb.User, error) {
		if username == stored.Username {
			return stored, nil
		}
		return nil, userdb.ErrNotFound
	}
	repo.GetByIDFn = func(ctx context.Context, db bun.IDB, id int64) (*userdb.User, error) {
		if id == stored.ID {
			return stored, nil
		}
		return nil, userdb.ErrNotFound
	}
	var touched bool
	repo.TouchLastLoginFn = func(ctx context.Context, db bun.IDB, id int64, at time.Time) error {
		touched = true
		return nil
	}

	svc := newTestService(repo, Config{TokenTTL: time.Hour}, nil)

	_, err := svc.Login(ctx, LoginRequest{Username: "bob", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, "Invalid credentials!", apperr.PublicMessage(err))

	_, err = svc.Login(ctx, LoginRequest{Username: "nobody", Password: "whatever"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	resp, err := svc.Login(ctx, LoginRequest{Username: "bob", Password: "correct horse"})
	require.NoError(t, err)
	assert.True(t, touched)
	assert.Equal(t, int64(5), resp.User.ID)
	assert.NotEmpty(t, resp.Token)

	id, err := svc.Authenticate(ctx, resp.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(5), id.UserID)
	assert.False(t, id.IsAdmin)

	// A promotion after issuance applies without a new token.
	stored.IsAdmin = true
	id, err = svc.Authenticate(ctx, resp.Token)
	require.NoError(t, err)
	assert.True(t, id.IsAdmin)
}

func TestService_Authenticate_Errors(t *testing.T) {
	ctx := context.Background()
	repo := userdb.NewFakeRepository()
	svc := newTestService(repo, Config{}, nil)

	_, err := svc.Authenticate(ctx, "")
	assert.ErrorIs(t, err, ErrTokenMissing)

	_, err = svc.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	provider := authjwt.NewProvider(testSecret)
	expired, err := provider.GenerateToken(&ghostClaims, -time.Minute)
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, expired)
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.Equal(t, "Token has expired!", apperr.PublicMessage(err))

	// Valid token whose subject was deleted.
	orphan, err := provider.GenerateToken(&ghostClaims, time.Minute)
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, orphan)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestService_Profile(t *testing.T) {
	ctx := context.Background()
	repo := userdb.NewFakeRepository()
	repo.GetByIDFn = func(ctx context.Context, db bun.IDB, id int64) (*userdb.User, error) {
		return &userdb.User{ID: id, Username: "carol", Score: 300}, nil
	}

	profile, err := newTestService(repo, Config{}, fakeRanker{rank: 3}).Profile(ctx, 8)
	require.NoError(t, err)
	assert.Equal(t, 3, profile.Rank)
	assert.Equal(t, 300, profile.Score)

	// Rank lookup failure degrades to an unranked profile.
	profile, err = newTestService(repo, Config{}, fakeRanker{err: errors.New("redis down")}).Profile(ctx, 8)
	require.NoError(t, err)
	assert.Zero(t, profile.Rank)
}

func TestService_UpdateProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("email owned by another user", func(t *testing.T) {
		repo := userdb.NewFakeRepository()
		repo.GetByEmailFn = func(ctx context.Context, db bun.IDB, email string) (*userdb.User, error) {
			return &userdb.User{ID: 99, Email: email}, nil
		}
		err := newTestService(repo, Config{}, nil).UpdateProfile(ctx, 1, UpdateProfileRequest{Email: "x@example.com"})
		assert.ErrorIs(t, err, ErrEmailTaken)
		assert.NotContains(t, repo.Trace(), "Update")
	})

	t.Run("own email and new password", func(t *testing.T) {
		repo := userdb.NewFakeRepository()
		repo.GetByEmailFn = func(ctx context.Context, db bun.IDB, email string) (*userdb.User, error) {
			return &userdb.User{ID: 1, Email: email}, nil
		}
		repo.UpdateFn = func(ctx context.Context, db bun.IDB, id int64, fields *userdb.UserUpdateFields) error {
			require.NotNil(t, fields.Email)
			require.NotNil(t, fields.PasswordHash)
			assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(*fields.PasswordHash), []byte("newpassword")))
			return nil
		}
		err := newTestService(repo, Config{}, nil).UpdateProfile(ctx, 1, UpdateProfileRequest{Email: "x@example.com", Password: "newpassword"})
		require.NoError(t, err)
		assert.Equal(t, []string{"GetByEmail", "Update"}, repo.Trace())
	})

	t.Run("nothing to change", func(t *testing.T) {
		repo := userdb.NewFakeRepository()
		require.NoError(t, newTestService(repo, Config{}, nil).UpdateProfile(ctx, 1, UpdateProfileRequest{}))
		assert.Empty(t, repo.Trace())
	})
}

func TestService_EnsureAdmin(t *testing.T) {
	ctx := context.Background()

	t.Run("creates missing admin", func(t *testing.T) {
		repo := userdb.NewFakeRepository()
		var created *userdb.User
		repo.CreateFn = func(ctx context.Context, db bun.IDB, user *userdb.User) error {
			created = user
			return nil
		}
		require.NoError(t, newTestService(repo, Config{}, nil).EnsureAdmin(ctx, "admin", "admin@ctfplatform.com", "changeme1"))
		require.NotNil(t, created)
		assert.True(t, created.IsAdmin)
		assert.Equal(t, "admin@ctfplatform.com", created.Email)
	})

	t.Run("promotes existing non-admin", func(t *testing.T) {
		repo := userdb.NewFakeRepository()
		repo.GetByUsernameFn = func(ctx context.Context, db bun.IDB, username string) (*userdb.User, error) {
			return &userdb.User{ID: 1, Username: username}, nil
		}
		repo.UpdateFn = func(ctx context.Context, db bun.IDB, id int64, fields *userdb.UserUpdateFields) error {
			require.NotNil(t, fields.IsAdmin)
			assert.True(t, *fields.IsAdmin)
			return nil
		}
		require.NoError(t, newTestService(repo, Config{}, nil).EnsureAdmin(ctx, "admin", "admin@ctfplatform.com", ""))
		assert.Equal(t, []string{"GetByUsername", "Update"}, repo.Trace())
	})

	t.Run("no password skips creation", func(t *testing.T) {
		repo := userdb.NewFakeRepository()
		require.NoError(t, newTestService(repo, Config{}, nil).EnsureAdmin(ctx, "admin", "admin@ctfplatform.com", ""))
		assert.Equal(t, []string{"GetByUsername"}, repo.Trace())
	})
}
