package leaderboardhandlers

import (
	"context"

	authdomain "github.com/Black-And-White-Club/ctf-platform/app/modules/auth/domain"
	leaderboardservice "github.com/Black-And-White-Club/ctf-platform/app/modules/leaderboard/application"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/httpx"
)

// FakeService is a programmable leaderboardservice.Service.
type FakeService struct {
	GlobalFunc      func(ctx context.Context, page httpx.PageRequest) (*leaderboardservice.GlobalBoard, error)
	ByCategoryFunc  func(ctx context.Context, categoryID int64) (*leaderboardservice.CategoryBoard, error)
	ByChallengeFunc func(ctx context.Context, caller authdomain.Identity, challengeID int64) (*leaderboardservice.ChallengeBoard, error)
	TopChartFunc    func(ctx context.Context, top int) ([]byte, error)
}

func (f *FakeService) Global(ctx context.Context, page httpx.PageRequest) (*leaderboardservice.GlobalBoard, error) {
	if f.GlobalFunc != nil {
		return f.GlobalFunc(ctx, page)
	}
	return &leaderboardservice.GlobalBoard{}, nil
}

func (f *FakeService) ByCategory(ctx context.Context, categoryID int64) (*leaderboardservice.CategoryBoard, error) {
	if f.ByCategoryFunc != nil {
		return f.ByCategoryFunc(ctx, categoryID)
	}
	return &leaderboardservice.CategoryBoard{CategoryID: categoryID}, nil
}

func (f *FakeService) ByChallenge(ctx context.Context, caller authdomain.Identity, challengeID int64) (*leaderboardservice.ChallengeBoard, error) {
	if f.ByChallengeFunc != nil {
		return f.ByChallengeFunc(ctx, caller, challengeID)
	}
	return &leaderboardservice.ChallengeBoard{ChallengeID: challengeID}, nil
}

func (f *FakeService) UserRank(ctx context.Context, userID int64) (int, error) {
	return 0, nil
}

func (f *FakeService) TopChart(ctx context.Context, top int) ([]byte, error) {
	if f.TopChartFunc != nil {
		return f.TopChartFunc(ctx, top)
	}
	return []byte("\x89PNG"), nil
}

func (f *FakeService) Invalidate(ctx context.Context) {}

var _ leaderboardservice.Service = (*FakeService)(nil)
