package challengeservice

import (
	"context"
	"errors"
	"strings"

	challengedb "github.com/Black-And-White-Club/ctf-platform/app/modules/challenge/infrastructure/repositories"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/apperr"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/results"
)

const maxCategoryNameLength = 50

var (
	ErrCategoryNotFound     = apperr.NotFound("Category not found!")
	errCategoryNameRequired = apperr.Validation("Category name is required!")
	errCategoryExists       = apperr.Conflict("Category already exists!")
	errCategoryInUse        = apperr.Validation("Cannot delete category that has challenges! Move or delete the challenges first.")
)

// CategoryRequest creates or edits a category. On update empty values are ignored.
type CategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ListCategories returns every category.
func (s *ChallengeService) ListCategories(ctx context.Context) ([]challengedb.Category, error) {
	categories, err := s.repo.ListCategories(ctx, nil)
	if err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []challengedb.Category{}
	}
	return categories, nil
}

// CreateCategory stores a new category with a unique name.
func (s *ChallengeService) CreateCategory(ctx context.Context, req CategoryRequest) (*challengedb.Category, error) {
	return unwrap(withTelemetry(s, ctx, "CreateCategory", 0, func(ctx context.Context) (results.OperationResult[challengedb.Category, error], error) {
		name := strings.TrimSpace(req.Name)
		if name == "" {
			return results.FailureResult[challengedb.Category, error](errCategoryNameRequired), nil
		}
		if len(name) > maxCategoryNameLength {
			return results.FailureResult[challengedb.Category, error](
				apperr.Validation("Category name must be at most %d characters!", maxCategoryNameLength)), nil
		}

		category := &challengedb.Category{
			Name:        name,
			Description: strings.TrimSpace(req.Description),
			CreatedAt:   s.now(),
		}
		if err := s.repo.CreateCategory(ctx, nil, category); err != nil {
			if errors.Is(err, challengedb.ErrDuplicate) {
				return results.FailureResult[challengedb.Category, error](errCategoryExists), nil
			}
			return results.OperationResult[challengedb.Category, error]{}, err
		}
		return results.SuccessResult[challengedb.Category, error](*category), nil
	}))
}

// UpdateCategory renames or re-describes a category.
func (s *ChallengeService) UpdateCategory(ctx context.Context, id int64, req CategoryRequest) error {
	_, err := unwrap(withTelemetry(s, ctx, "UpdateCategory", id, func(ctx context.Context) (results.OperationResult[struct{}, error], error) {
		var name, description *string
		if v := strings.TrimSpace(req.Name); v != "" {
			if len(v) > maxCategoryNameLength {
				return results.FailureResult[struct{}, error](
					apperr.Validation("Category name must be at most %d characters!", maxCategoryNameLength)), nil
			}
			name = &v
		}
		if v := strings.TrimSpace(req.Description); v != "" {
			description = &v
		}

		if err := s.repo.UpdateCategory(ctx, nil, id, name, description); err != nil {
			switch {
			case errors.Is(err, challengedb.ErrNotFound), errors.Is(err, challengedb.ErrNoRowsAffected):
				return results.FailureResult[struct{}, error](ErrCategoryNotFound), nil
			case errors.Is(err, challengedb.ErrDuplicate):
				return results.FailureResult[struct{}, error](errCategoryExists), nil
			}
			return results.OperationResult[struct{}, error]{}, err
		}
		return results.SuccessResult[struct{}, error](struct{}{}), nil
	}))
	return err
}

// DeleteCategory removes a category no challenge references.
func (s *ChallengeService) DeleteCategory(ctx context.Context, id int64) error {
	_, err := unwrap(withTelemetry(s, ctx, "DeleteCategory", id, func(ctx context.Context) (results.OperationResult[struct{}, error], error) {
		if err := s.repo.DeleteCategory(ctx, nil, id); err != nil {
			switch {
			case errors.Is(err, challengedb.ErrNoRowsAffected):
				return results.FailureResult[struct{}, error](ErrCategoryNotFound), nil
			case errors.Is(err, challengedb.ErrInUse):
				return results.FailureResult[struct{}, error](errCategoryInUse), nil
			}
			return results.OperationResult[struct{}, error]{}, err
		}
		return results.SuccessResult[struct{}, error](struct{}{}), nil
	}))
	return err
}
