package authhandlers

import (
	"context"

	authservice "github.com/Black-And-White-Club/ctf-platform/app/modules/auth/application"
	authdomain "github.com/Black-And-White-Club/ctf-platform/app/modules/auth/domain"
)

// FakeService is a programmable authservice.Service.
type FakeService struct {
	RegisterFunc      func(ctx context.Context, req authservice.RegisterRequest) (int64, error)
	LoginFunc         func(ctx context.Context, req authservice.LoginRequest) (*authservice.LoginResponse, error)
	AuthenticateFunc  func(ctx context.Context, token string) (authdomain.Identity, error)
	ProfileFunc       func(ctx context.Context, userID int64) (*authservice.Profile, error)
	UpdateProfileFunc func(ctx context.Context, userID int64, req authservice.UpdateProfileRequest) error
	EnsureAdminFunc   func(ctx context.Context, username, email, password string) error
}

func (f *FakeService) Register(ctx context.Context, req authservice.RegisterRequest) (int64, error) {
	if f.RegisterFunc != nil {
		return f.RegisterFunc(ctx, req)
	}
	return 0, nil
}

func (f *FakeService) Login(ctx context.Context, req authservice.LoginRequest) (*authservice.LoginResponse, error) {
	if f.LoginFunc != nil {
		return f.LoginFunc(ctx, req)
	}
	return &authservice.LoginResponse{}, nil
}

func (f *FakeService) Authenticate(ctx context.Context, token string) (authdomain.Identity, error) {
	if f.AuthenticateFunc != nil {
		return f.AuthenticateFunc(ctx, token)
	}
	return authdomain.Identity{}, authservice.ErrTokenInvalid
}

func (f *FakeService) Profile(ctx context.Context, userID int64) (*authservice.Profile, error) {
	if f.ProfileFunc != nil {
		return f.ProfileFunc(ctx, userID)
	}
	return &authservice.Profile{ID: userID}, nil
}

func (f *FakeService) UpdateProfile(ctx context.Context, userID int64, req authservice.UpdateProfileRequest) error {
	if f.UpdateProfileFunc != nil {
		return f.UpdateProfileFunc(ctx, userID, req)
	}
	return nil
}

func (f *FakeService) EnsureAdmin(ctx context.Context, username, email, password string) error {
	if f.EnsureAdminFunc != nil {
		return f.EnsureAdminFunc(ctx, username, email, password)
	}
	return nil
}

var _ authservice.Service = (*FakeService)(nil)
