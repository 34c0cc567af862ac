package authjwt

import (
	"errors"
	"os"
	"testing"
	"time"

	authdomain "github.com/Black-And-White-Club/ctf-platform/app/modules/auth/domain"
)

func TestProvider_GenerateAndValidateToken(t *testing.T) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "test-secret-at-least-32-chars-long!!"
	}
	p := NewProvider(secret)

	claims := &authdomain.Claims{
		UserID:   42,
		Username: "alice",
		IsAdmin:  true,
	}

	tests := []struct {
		name        string
		token       string
		ttl         time.Duration
		provider    Provider
		expectedErr error
		verify      func(t *testing.T, validated *authdomain.Claims)
	}{
		{
			name:     "success",
			ttl:      1 * time.Hour,
			provider: p,
			verify: func(t *testing.T, validated *authdomain.Claims) {
				if validated.UserID != claims.UserID {
					t.Errorf("expected userID %d, got %d", claims.UserID, validated.UserID)
				}
				if validated.Username != claims.Username {
					t.Errorf("expected username %s, got %s", claims.Username, validated.Username)
				}
				if !validated.IsAdmin {
					t.Error("expected is_admin to round-trip")
				}
				if validated.ExpiresAt.Before(time.Now()) {
					t.Errorf("expected expiry in the future, got %v", validated.ExpiresAt)
				}
			},
		},
		{
			name:        "expired token",
			ttl:         -1 * time.Hour,
			provider:    p,
			expectedErr: ErrExpiredToken,
		},
		{
			name:        "invalid signature",
			ttl:         1 * time.Hour,
			provider:    NewProvider("wrong-secret"),
			expectedErr: ErrInvalidSignature,
		},
		{
			name:        "malformed token",
			token:       "not.a.jwt",
			expectedErr: ErrInvalidToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := tt.token
			if token == "" {
				var err error
				token, err = p.GenerateToken(claims, tt.ttl)
				if err != nil {
					t.Fatalf("failed to generate token: %v", err)
				}
			}

			validateTarget := p
			if tt.provider != nil {
				validateTarget = tt.provider
			}

			validatedClaims, err := validateTarget.ValidateToken(token)

			if tt.expectedErr != nil {
				if !errors.Is(err, tt.expectedErr) {
					t.Errorf("expected error %v, got %v", tt.expectedErr, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if tt.verify != nil {
				tt.verify(t, validatedClaims)
			}
		})
	}
}
