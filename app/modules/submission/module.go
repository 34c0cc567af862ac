package submission

import (
	"context"
	"log/slog"
	"net/http"

	authhandlers "github.com/Black-And-White-Club/ctf-platform/app/modules/auth/infrastructure/handlers"
	challengedb "github.com/Black-And-White-Club/ctf-platform/app/modules/challenge/infrastructure/repositories"
	submissionservice "github.com/Black-And-White-Club/ctf-platform/app/modules/submission/application"
	submissionhandlers "github.com/Black-And-White-Club/ctf-platform/app/modules/submission/infrastructure/handlers"
	submissiondb "github.com/Black-And-White-Club/ctf-platform/app/modules/submission/infrastructure/repositories"
	userdb "github.com/Black-And-White-Club/ctf-platform/app/modules/user/infrastructure/repositories"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/ratelimit"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/telemetry"
	"github.com/Black-And-White-Club/ctf-platform/config"
	"github.com/go-chi/chi/v5"
	"github.com/uptrace/bun"
)

// Module represents the submission ledger module.
type Module struct {
	service  submissionservice.Service
	repo     submissiondb.Repository
	handlers *submissionhandlers.SubmissionHandlers
	logger   *slog.Logger
}

// NewModule creates the submission module and registers its routes on
// httpRouter when one is given. requireAuth must resolve the caller identity.
func NewModule(
	ctx context.Context,
	cfg *config.Config,
	obs telemetry.Observability,
	publisher submissionservice.SolvePublisher,
	challengeRepo challengedb.Repository,
	userRepo userdb.Repository,
	httpRouter chi.Router,
	requireAuth func(http.Handler) http.Handler,
	db *bun.DB,
) (*Module, error) {
	logger := obs.Logger
	logger.InfoContext(ctx, "Initializing submission module")

	repo := submissiondb.NewRepository(db)
	service := submissionservice.NewSubmissionService(
		repo,
		challengeRepo,
		userRepo,
		publisher,
		submissionservice.Config{
			CaseSensitive:     cfg.Flags.CaseSensitive,
			BloodBonusEnabled: cfg.Scoring.BloodBonusEnabled,
			LockTimeout:       cfg.Postgres.LockTimeout,
		},
		logger,
		obs.Metrics,
		obs.Tracer,
		db,
	)

	var limiter *ratelimit.KeyedLimiter
	if cfg.RateLimitingEnabled() {
		limiter = ratelimit.PerMinute(cfg.RateLimit.SubmissionsPerMinute)
	}
	handlers := submissionhandlers.NewSubmissionHandlers(service, limiter, logger, obs.Tracer)

	if httpRouter != nil {
		httpRouter.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/api/challenges/{id}/submit", handlers.HandleSubmit)
			r.Get("/api/submissions", handlers.HandleList)
			r.Get("/api/submissions/stats", handlers.HandleStats)
			r.Get("/api/submissions/user/{id}", handlers.HandleUserSubmissions)
			r.Get("/api/submissions/challenge/{id}", handlers.HandleChallengeSubmissions)

			r.With(authhandlers.RequireAdmin).Get("/api/admin/submissions", handlers.HandleAdminList)
		})
	}

	return &Module{
		service:  service,
		repo:     repo,
		handlers: handlers,
		logger:   logger,
	}, nil
}

// GetService returns the submission service for use by other modules.
func (m *Module) GetService() submissionservice.Service {
	return m.service
}

// GetRepository returns the submission repository. The challenge, score and
// leaderboard modules read solve activity through it.
func (m *Module) GetRepository() submissiondb.Repository {
	return m.repo
}
