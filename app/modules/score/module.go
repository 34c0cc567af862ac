package score

import (
	"context"
	"fmt"
	"log/slog"

	challengedb "github.com/Black-And-White-Club/ctf-platform/app/modules/challenge/infrastructure/repositories"
	scoreservice "github.com/Black-And-White-Club/ctf-platform/app/modules/score/application"
	scorejobs "github.com/Black-And-White-Club/ctf-platform/app/modules/score/infrastructure/jobs"
	submissiondb "github.com/Black-And-White-Club/ctf-platform/app/modules/submission/infrastructure/repositories"
	userdb "github.com/Black-And-White-Club/ctf-platform/app/modules/user/infrastructure/repositories"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/attr"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/telemetry"
	"github.com/Black-And-White-Club/ctf-platform/config"
	"github.com/uptrace/bun"
)

// Module represents the score recalculation module.
type Module struct {
	service   *scoreservice.ScoreService
	scheduler *scorejobs.Scheduler
	logger    *slog.Logger
}

// NewModule creates the score module. The River scheduler is only created
// when a database is configured.
func NewModule(
	ctx context.Context,
	cfg *config.Config,
	obs telemetry.Observability,
	publisher scoreservice.RecalcPublisher,
	challengeRepo challengedb.Repository,
	submissionRepo submissiondb.Repository,
	userRepo userdb.Repository,
	db *bun.DB,
) (*Module, error) {
	logger := obs.Logger
	logger.InfoContext(ctx, "Initializing score module")

	service := scoreservice.NewScoreService(
		challengeRepo,
		submissionRepo,
		userRepo,
		publisher,
		scoreservice.Config{
			Dynamic:    cfg.DynamicScoring(),
			BasePoints: cfg.Scoring.BasePoints,
		},
		logger,
		obs.Metrics,
		obs.Tracer,
		db,
	)

	m := &Module{service: service, logger: logger}
	if db != nil {
		scheduler, err := scorejobs.NewScheduler(ctx, cfg.Postgres.DSN, cfg.Scoring.RecalcInterval, service, logger, obs.Metrics)
		if err != nil {
			return nil, fmt.Errorf("failed to create score scheduler: %w", err)
		}
		m.scheduler = scheduler
	}
	return m, nil
}

// Run starts the periodic recalculation job.
func (m *Module) Run(ctx context.Context) error {
	if m.scheduler == nil {
		return nil
	}
	return m.scheduler.Start(ctx)
}

// Close stops the scheduler, waiting for a running job.
func (m *Module) Close(ctx context.Context) error {
	if m.scheduler == nil {
		return nil
	}
	if err := m.scheduler.Stop(ctx); err != nil {
		m.logger.ErrorContext(ctx, "Error stopping score scheduler", attr.Error(err))
		return err
	}
	m.logger.InfoContext(ctx, "Score module stopped")
	return nil
}

// GetService returns the score service for use by other modules.
func (m *Module) GetService() scoreservice.Service {
	return m.service
}

// GetScheduler returns the job scheduler, nil when running without a database.
func (m *Module) GetScheduler() *scorejobs.Scheduler {
	return m.scheduler
}
