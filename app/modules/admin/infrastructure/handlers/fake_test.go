package adminhandlers

import (
	"context"

	adminservice "github.com/Black-And-White-Club/ctf-platform/app/modules/admin/application"
	scoreservice "github.com/Black-And-White-Club/ctf-platform/app/modules/score/application"
)

// FakeService is a programmable adminservice.Service.
type FakeService struct {
	StatsFunc  func(ctx context.Context) (*adminservice.Stats, error)
	BackupFunc func(ctx context.Context) (*adminservice.BackupSnapshot, error)
	ExportFunc func(ctx context.Context) (*adminservice.Export, error)
}

func (f *FakeService) Stats(ctx context.Context) (*adminservice.Stats, error) {
	if f.StatsFunc != nil {
		return f.StatsFunc(ctx)
	}
	return &adminservice.Stats{}, nil
}

func (f *FakeService) Backup(ctx context.Context) (*adminservice.BackupSnapshot, error) {
	if f.BackupFunc != nil {
		return f.BackupFunc(ctx)
	}
	return &adminservice.BackupSnapshot{}, nil
}

func (f *FakeService) Export(ctx context.Context) (*adminservice.Export, error) {
	if f.ExportFunc != nil {
		return f.ExportFunc(ctx)
	}
	return &adminservice.Export{}, nil
}

// FakeScores is a programmable scoreservice.Service.
type FakeScores struct {
	UpdateAllFunc      func(ctx context.Context) (*scoreservice.RecalcSummary, error)
	RecalculateUsersFn func(ctx context.Context) (*scoreservice.UserRecalcSummary, error)
}

func (f *FakeScores) UpdateAllChallengeScores(ctx context.Context) (*scoreservice.RecalcSummary, error) {
	if f.UpdateAllFunc != nil {
		return f.UpdateAllFunc(ctx)
	}
	return &scoreservice.RecalcSummary{}, nil
}

func (f *FakeScores) RecalculateUserScores(ctx context.Context) (*scoreservice.UserRecalcSummary, error) {
	if f.RecalculateUsersFn != nil {
		return f.RecalculateUsersFn(ctx)
	}
	return &scoreservice.UserRecalcSummary{}, nil
}

var (
	_ adminservice.Service = (*FakeService)(nil)
	_ scoreservice.Service = (*FakeScores)(nil)
)
