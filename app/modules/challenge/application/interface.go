package challengeservice

import (
	"context"

	authdomain "github.com/Black-And-White-Club/ctf-platform/app/modules/auth/domain"
	challengedb "github.com/Black-And-White-Club/ctf-platform/app/modules/challenge/infrastructure/repositories"
)

// Service is the challenge catalogue surface: listing, authoring, categories
// and admin flag tooling. Flag submission lives in the submission module.
type Service interface {
	ListChallenges(ctx context.Context, caller authdomain.Identity) ([]ChallengeView, error)
	GetChallenge(ctx context.Context, caller authdomain.Identity, id int64) (*ChallengeView, error)
	CreateChallenge(ctx context.Context, caller authdomain.Identity, req CreateChallengeRequest) (*CreatedChallenge, error)
	UpdateChallenge(ctx context.Context, id int64, req UpdateChallengeRequest) error
	DeleteChallenge(ctx context.Context, id int64) error
	Attachment(ctx context.Context, caller authdomain.Identity, id int64) (*AttachmentFile, error)

	ListCategories(ctx context.Context) ([]challengedb.Category, error)
	CreateCategory(ctx context.Context, req CategoryRequest) (*challengedb.Category, error)
	UpdateCategory(ctx context.Context, id int64, req CategoryRequest) error
	DeleteCategory(ctx context.Context, id int64) error

	GenerateFlag(prefix string, length int) (string, error)
	ValidateFlag(flag, prefix string) FlagCheck
}

var _ Service = (*ChallengeService)(nil)
