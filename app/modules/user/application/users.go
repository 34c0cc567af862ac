package userservice

import (
	"context"
	"errors"
	"fmt"

	userdomain "github.com/Black-And-White-Club/ctf-platform/app/modules/user/domain"
	userdb "github.com/Black-And-White-Club/ctf-platform/app/modules/user/infrastructure/repositories"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/apperr"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/attr"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/httpx"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/results"
	"github.com/uptrace/bun"
)

// UserPage is one page of the admin user listing.
type UserPage struct {
	Users       []userdb.User `json:"users"`
	Total       int           `json:"total"`
	Pages       int           `json:"pages"`
	CurrentPage int           `json:"current_page"`
}

// UpdateUserRequest is an admin edit. Absent fields are left unchanged.
// Score is accepted only to be refused: it is derived from the ledger and
// rebuilt through the score recalculation.
type UpdateUserRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	IsAdmin  *bool   `json:"is_admin"`
	Score    *int    `json:"score"`
	IsActive *bool   `json:"is_active"`
}

var (
	// ErrCannotDeleteSelf is returned when an admin tries to delete their own account.
	ErrCannotDeleteSelf = apperr.Validation("Cannot delete your own account!")
	// ErrScoreReadOnly is returned when an admin edit sets a user's score.
	ErrScoreReadOnly = apperr.Validation("Scores are derived from solves; use recalculate-users instead!")
)

// GetUser loads a single user.
func (s *UserService) GetUser(ctx context.Context, id int64) (*userdb.User, error) {
	return unwrap(withTelemetry(s, ctx, "GetUser", id, func(ctx context.Context) (results.OperationResult[userdb.User, error], error) {
		user, err := s.repo.GetByID(ctx, nil, id)
		if err != nil {
			if errors.Is(err, userdb.ErrNotFound) {
				return results.FailureResult[userdb.User, error](apperr.NotFound("user not found")), nil
			}
			return results.OperationResult[userdb.User, error]{}, err
		}
		return results.SuccessResult[userdb.User, error](*user), nil
	}))
}

// ListUsers returns a page of users in ID order.
func (s *UserService) ListUsers(ctx context.Context, page httpx.PageRequest) (*UserPage, error) {
	users, total, err := s.repo.List(ctx, nil, page.Offset(), page.PerPage)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []userdb.User{}
	}
	return &UserPage{
		Users:       users,
		Total:       total,
		Pages:       page.Pages(total),
		CurrentPage: page.Page,
	}, nil
}

// UpdateUser applies an admin edit and returns the updated user.
func (s *UserService) UpdateUser(ctx context.Context, id int64, req UpdateUserRequest) (*userdb.User, error) {
	user, err := unwrap(withTelemetry(s, ctx, "UpdateUser", id, func(ctx context.Context) (results.OperationResult[userdb.User, error], error) {
		fields, verr := buildUpdate(req)
		if verr != nil {
			return results.FailureResult[userdb.User, error](verr), nil
		}

		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[userdb.User, error], error) {
			if err := s.repo.Update(ctx, db, id, fields); err != nil {
				switch {
				case errors.Is(err, userdb.ErrNoRowsAffected):
					return results.FailureResult[userdb.User, error](apperr.NotFound("user not found")), nil
				case errors.Is(err, userdb.ErrDuplicate):
					return results.FailureResult[userdb.User, error](apperr.Conflict("Username or email already exists!")), nil
				}
				return results.OperationResult[userdb.User, error]{}, err
			}

			user, err := s.repo.GetByID(ctx, db, id)
			if err != nil {
				if errors.Is(err, userdb.ErrNotFound) {
					return results.FailureResult[userdb.User, error](apperr.NotFound("user not found")), nil
				}
				return results.OperationResult[userdb.User, error]{}, err
			}
			return results.SuccessResult[userdb.User, error](*user), nil
		})
	}))
	if err == nil && s.onChange != nil {
		s.onChange(ctx)
	}
	return user, err
}

// DeleteUser removes a user and their submissions. Admins cannot delete
// themselves. The user's solves are released from the challenge projections
// in the same transaction, so solved counts and first blood stay in step with
// the remaining ledger.
func (s *UserService) DeleteUser(ctx context.Context, callerID, id int64) error {
	_, err := unwrap(withTelemetry(s, ctx, "DeleteUser", id, func(ctx context.Context) (results.OperationResult[struct{}, error], error) {
		if callerID == id {
			return results.FailureResult[struct{}, error](ErrCannotDeleteSelf), nil
		}
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[struct{}, error], error) {
			released, err := s.repo.ReleaseSolves(ctx, db, id)
			if err != nil {
				return results.OperationResult[struct{}, error]{}, err
			}
			if err := s.repo.Delete(ctx, db, id); err != nil {
				if errors.Is(err, userdb.ErrNoRowsAffected) {
					return results.FailureResult[struct{}, error](apperr.NotFound("user not found")), nil
				}
				return results.OperationResult[struct{}, error]{}, fmt.Errorf("failed to delete user: %w", err)
			}
			if released > 0 {
				s.logger.InfoContext(ctx, "Released solves of deleted user",
					attr.UserID(id),
					attr.Int("challenges", released),
				)
			}
			return results.SuccessResult[struct{}, error](struct{}{}), nil
		})
	}))
	if err == nil && s.onChange != nil {
		s.onChange(ctx)
	}
	return err
}

func buildUpdate(req UpdateUserRequest) (*userdb.UserUpdateFields, error) {
	fields := &userdb.UserUpdateFields{IsAdmin: req.IsAdmin, IsActive: req.IsActive}
	if req.Username != nil {
		username, err := userdomain.NormalizeUsername(*req.Username)
		if err != nil {
			return nil, err
		}
		fields.Username = &username
	}
	if req.Email != nil {
		email, err := userdomain.NormalizeEmail(*req.Email)
		if err != nil {
			return nil, err
		}
		fields.Email = &email
	}
	if req.Score != nil {
		return nil, ErrScoreReadOnly
	}
	return fields, nil
}
