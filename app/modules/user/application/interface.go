package userservice

import (
	"context"

	userdb "github.com/Black-And-White-Club/ctf-platform/app/modules/user/infrastructure/repositories"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/httpx"
)

// Service is the administrative user management surface.
type Service interface {
	GetUser(ctx context.Context, id int64) (*userdb.User, error)
	ListUsers(ctx context.Context, page httpx.PageRequest) (*UserPage, error)
	UpdateUser(ctx context.Context, id int64, req UpdateUserRequest) (*userdb.User, error)
	DeleteUser(ctx context.Context, callerID, id int64) error
}

var _ Service = (*UserService)(nil)
