package submissionservice

import (
	"context"

	authdomain "github.com/Black-And-White-Club/ctf-platform/app/modules/auth/domain"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/httpx"
)

// Service is the submission ledger surface.
type Service interface {
	Submit(ctx context.Context, caller authdomain.Identity, challengeID int64, flag string) (*Verdict, error)
	ListSubmissions(ctx context.Context, caller authdomain.Identity, q ListQuery) (*SubmissionPage, error)
	ListUserSubmissions(ctx context.Context, caller authdomain.Identity, userID int64, page httpx.PageRequest) (*SubmissionPage, error)
	ListChallengeSubmissions(ctx context.Context, caller authdomain.Identity, challengeID int64, page httpx.PageRequest) (*SubmissionPage, error)
	GetStats(ctx context.Context, caller authdomain.Identity) (*Stats, error)
}

var _ Service = (*SubmissionService)(nil)
