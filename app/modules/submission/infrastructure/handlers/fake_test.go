package submissionhandlers

import (
	"context"

	authdomain "github.com/Black-And-White-Club/ctf-platform/app/modules/auth/domain"
	submissionservice "github.com/Black-And-White-Club/ctf-platform/app/modules/submission/application"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/httpx"
)

// FakeService is a programmable submissionservice.Service.
type FakeService struct {
	SubmitFunc          func(ctx context.Context, caller authdomain.Identity, challengeID int64, flag string) (*submissionservice.Verdict, error)
	ListSubmissionsFunc func(ctx context.Context, caller authdomain.Identity, q submissionservice.ListQuery) (*submissionservice.SubmissionPage, error)
	ListUserFunc        func(ctx context.Context, caller authdomain.Identity, userID int64, page httpx.PageRequest) (*submissionservice.SubmissionPage, error)
	ListChallengeFunc   func(ctx context.Context, caller authdomain.Identity, challengeID int64, page httpx.PageRequest) (*submissionservice.SubmissionPage, error)
	GetStatsFunc        func(ctx context.Context, caller authdomain.Identity) (*submissionservice.Stats, error)
}

func (f *FakeService) Submit(ctx context.Context, caller authdomain.Identity, challengeID int64, flag string) (*submissionservice.Verdict, error) {
	if f.SubmitFunc != nil {
		return f.SubmitFunc(ctx, caller, challengeID, flag)
	}
	return &submissionservice.Verdict{Message: "Incorrect flag!"}, nil
}

func (f *FakeService) ListSubmissions(ctx context.Context, caller authdomain.Identity, q submissionservice.ListQuery) (*submissionservice.SubmissionPage, error) {
	if f.ListSubmissionsFunc != nil {
		return f.ListSubmissionsFunc(ctx, caller, q)
	}
	return &submissionservice.SubmissionPage{}, nil
}

func (f *FakeService) ListUserSubmissions(ctx context.Context, caller authdomain.Identity, userID int64, page httpx.PageRequest) (*submissionservice.SubmissionPage, error) {
	if f.ListUserFunc != nil {
		return f.ListUserFunc(ctx, caller, userID, page)
	}
	return &submissionservice.SubmissionPage{}, nil
}

func (f *FakeService) ListChallengeSubmissions(ctx context.Context, caller authdomain.Identity, challengeID int64, page httpx.PageRequest) (*submissionservice.SubmissionPage, error) {
	if f.ListChallengeFunc != nil {
		return f.ListChallengeFunc(ctx, caller, challengeID, page)
	}
	return &submissionservice.SubmissionPage{}, nil
}

func (f *FakeService) GetStats(ctx context.Context, caller authdomain.Identity) (*submissionservice.Stats, error) {
	if f.GetStatsFunc != nil {
		return f.GetStatsFunc(ctx, caller)
	}
	return &submissionservice.Stats{}, nil
}

var _ submissionservice.Service = (*FakeService)(nil)
