package userhandlers

import (
	"context"

	userservice "github.com/Black-And-White-Club/ctf-platform/app/modules/user/application"
	userdb "github.com/Black-And-White-Club/ctf-platform/app/modules/user/infrastructure/repositories"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/httpx"
)

// FakeService is a programmable userservice.Service.
type FakeService struct {
	GetUserFunc    func(ctx context.Context, id int64) (*userdb.User, error)
	ListUsersFunc  func(ctx context.Context, page httpx.PageRequest) (*userservice.UserPage, error)
	UpdateUserFunc func(ctx context.Context, id int64, req userservice.UpdateUserRequest) (*userdb.User, error)
	DeleteUserFunc func(ctx context.Context, callerID, id int64) error
}

func (f *FakeService) GetUser(ctx context.Context, id int64) (*userdb.User, error) {
	if f.GetUserFunc != nil {
		return f.GetUserFunc(ctx, id)
	}
	return &userdb.User{ID: id}, nil
}

func (f *FakeService) ListUsers(ctx context.Context, page httpx.PageRequest) (*userservice.UserPage, error) {
	if f.ListUsersFunc != nil {
		return f.ListUsersFunc(ctx, page)
	}
	return &userservice.UserPage{Users: []userdb.User{}}, nil
}

func (f *FakeService) UpdateUser(ctx context.Context, id int64, req userservice.UpdateUserRequest) (*userdb.User, error) {
	if f.UpdateUserFunc != nil {
		return f.UpdateUserFunc(ctx, id, req)
	}
	return &userdb.User{ID: id}, nil
}

func (f *FakeService) DeleteUser(ctx context.Context, callerID, id int64) error {
	if f.DeleteUserFunc != nil {
		return f.DeleteUserFunc(ctx, callerID, id)
	}
	return nil
}

var _ userservice.Service = (*FakeService)(nil)
