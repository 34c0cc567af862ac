package challengehandlers

import (
	"context"

	authdomain "github.com/Black-And-White-Club/ctf-platform/app/modules/auth/domain"
	challengeservice "github.com/Black-And-White-Club/ctf-platform/app/modules/challenge/application"
	challengedb "github.com/Black-And-White-Club/ctf-platform/app/modules/challenge/infrastructure/repositories"
)

// FakeService is a programmable challengeservice.Service.
type FakeService struct {
	ListChallengesFunc  func(ctx context.Context, caller authdomain.Identity) ([]challengeservice.ChallengeView, error)
	GetChallengeFunc    func(ctx context.Context, caller authdomain.Identity, id int64) (*challengeservice.ChallengeView, error)
	CreateChallengeFunc func(ctx context.Context, caller authdomain.Identity, req challengeservice.CreateChallengeRequest) (*challengeservice.CreatedChallenge, error)
	UpdateChallengeFunc func(ctx context.Context, id int64, req challengeservice.UpdateChallengeRequest) error
	DeleteChallengeFunc func(ctx context.Context, id int64) error
	AttachmentFunc      func(ctx context.Context, caller authdomain.Identity, id int64) (*challengeservice.AttachmentFile, error)
	ListCategoriesFunc  func(ctx context.Context) ([]challengedb.Category, error)
	CreateCategoryFunc  func(ctx context.Context, req challengeservice.CategoryRequest) (*challengedb.Category, error)
	UpdateCategoryFunc  func(ctx context.Context, id int64, req challengeservice.CategoryRequest) error
	DeleteCategoryFunc  func(ctx context.Context, id int64) error
	GenerateFlagFunc    func(prefix string, length int) (string, error)
	ValidateFlagFunc    func(flag, prefix string) challengeservice.FlagCheck
}

func (f *FakeService) ListChallenges(ctx context.Context, caller authdomain.Identity) ([]challengeservice.ChallengeView, error) {
	if f.ListChallengesFunc != nil {
		return f.ListChallengesFunc(ctx, caller)
	}
	return []challengeservice.ChallengeView{}, nil
}

func (f *FakeService) GetChallenge(ctx context.Context, caller authdomain.Identity, id int64) (*challengeservice.ChallengeView, error) {
	if f.GetChallengeFunc != nil {
		return f.GetChallengeFunc(ctx, caller, id)
	}
	return nil, challengeservice.ErrChallengeNotFound
}

func (f *FakeService) CreateChallenge(ctx context.Context, caller authdomain.Identity, req challengeservice.CreateChallengeRequest) (*challengeservice.CreatedChallenge, error) {
	if f.CreateChallengeFunc != nil {
		return f.CreateChallengeFunc(ctx, caller, req)
	}
	return &challengeservice.CreatedChallenge{}, nil
}

func (f *FakeService) UpdateChallenge(ctx context.Context, id int64, req challengeservice.UpdateChallengeRequest) error {
	if f.UpdateChallengeFunc != nil {
		return f.UpdateChallengeFunc(ctx, id, req)
	}
	return nil
}

func (f *FakeService) DeleteChallenge(ctx context.Context, id int64) error {
	if f.DeleteChallengeFunc != nil {
		return f.DeleteChallengeFunc(ctx, id)
	}
	return nil
}

func (f *FakeService) Attachment(ctx context.Context, caller authdomain.Identity, id int64) (*challengeservice.AttachmentFile, error) {
	if f.AttachmentFunc != nil {
		return f.AttachmentFunc(ctx, caller, id)
	}
	return nil, challengeservice.ErrNoAttachment
}

func (f *FakeService) ListCategories(ctx context.Context) ([]challengedb.Category, error) {
	if f.ListCategoriesFunc != nil {
		return f.ListCategoriesFunc(ctx)
	}
	return []challengedb.Category{}, nil
}

func (f *FakeService) CreateCategory(ctx context.Context, req challengeservice.CategoryRequest) (*challengedb.Category, error) {
	if f.CreateCategoryFunc != nil {
		return f.CreateCategoryFunc(ctx, req)
	}
	return &challengedb.Category{Name: req.Name}, nil
}

func (f *FakeService) UpdateCategory(ctx context.Context, id int64, req challengeservice.CategoryRequest) error {
	if f.UpdateCategoryFunc != nil {
		return f.UpdateCategoryFunc(ctx, id, req)
	}
	return nil
}

func (f *FakeService) DeleteCategory(ctx context.Context, id int64) error {
	if f.DeleteCategoryFunc != nil {
		return f.DeleteCategoryFunc(ctx, id)
	}
	return nil
}

func (f *FakeService) GenerateFlag(prefix string, length int) (string, error) {
	if f.GenerateFlagFunc != nil {
		return f.GenerateFlagFunc(prefix, length)
	}
	return "CTF{generated}", nil
}

func (f *FakeService) ValidateFlag(flag, prefix string) challengeservice.FlagCheck {
	if f.ValidateFlagFunc != nil {
		return f.ValidateFlagFunc(flag, prefix)
	}
	return challengeservice.FlagCheck{Flag: flag}
}

var _ challengeservice.Service = (*FakeService)(nil)
