package authdomain

import (
	"context"
	"time"
)

// Claims represents the domain model for authentication claims carried by a
// bearer token.
type Claims struct {
	UserID    int64
	Username  string
	IsAdmin   bool
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// IsExpired checks if the claims have expired.
func (c *Claims) IsExpired() bool {
	return time.Now().After(c.ExpiresAt)
}

// Identity is the authenticated caller as seen by the domain services.
// IsAdmin reflects the stored account, not the token.
type Identity struct {
	UserID   int64
	Username string
	IsAdmin  bool
}

// CanSee reports whether the caller may see resources owned by userID.
func (i Identity) CanSee(userID int64) bool {
	return i.IsAdmin || i.UserID == userID
}

type identityKey struct{}

// WithIdentity stores the caller in ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the caller stored by the auth middleware.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
