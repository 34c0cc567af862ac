package authservice

import (
	"context"
	"time"

	authdomain "github.com/Black-And-White-Club/ctf-platform/app/modules/auth/domain"
)

// Service defines the authentication service interface.
type Service interface {
	// Register creates a player account and returns its ID.
	Register(ctx context.Context, req RegisterRequest) (int64, error)

	// Login checks credentials and issues a bearer token.
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)

	// Authenticate validates a bearer token and resolves the caller from the
	// stored account, so role changes apply to tokens already issued.
	Authenticate(ctx context.Context, token string) (authdomain.Identity, error)

	// Profile returns the caller's account with its leaderboard rank.
	Profile(ctx context.Context, userID int64) (*Profile, error)

	// UpdateProfile changes the caller's email and/or password.
	UpdateProfile(ctx context.Context, userID int64, req UpdateProfileRequest) error

	// EnsureAdmin creates the bootstrap administrator if missing.
	EnsureAdmin(ctx context.Context, username, email, password string) error
}

// Ranker is the global leaderboard as auth sees it. UserRank returns zero
// for unranked users. Invalidate drops cached pages after the set of ranked
// users changes.
type Ranker interface {
	UserRank(ctx context.Context, userID int64) (int, error)
	Invalidate(ctx context.Context)
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type UpdateProfileRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AccountSummary is the user object returned at login.
type AccountSummary struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	IsAdmin  bool   `json:"is_admin"`
}

type LoginResponse struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
	User      AccountSummary `json:"user"`
}

// Profile is the caller's own account view.
type Profile struct {
	ID        int64      `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	IsAdmin   bool       `json:"is_admin"`
	Score     int        `json:"score"`
	Rank      int        `json:"rank,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}
