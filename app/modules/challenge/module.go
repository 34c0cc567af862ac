package challenge

import (
	"context"
	"log/slog"
	"net/http"

	authhandlers "github.com/Black-And-White-Club/ctf-platform/app/modules/auth/infrastructure/handlers"
	challengeservice "github.com/Black-And-White-Club/ctf-platform/app/modules/challenge/application"
	challengehandlers "github.com/Black-And-White-Club/ctf-platform/app/modules/challenge/infrastructure/handlers"
	challengedb "github.com/Black-And-White-Club/ctf-platform/app/modules/challenge/infrastructure/repositories"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/telemetry"
	"github.com/Black-And-White-Club/ctf-platform/config"
	"github.com/go-chi/chi/v5"
	"github.com/uptrace/bun"
)

// Module represents the challenge catalogue module.
type Module struct {
	service  challengeservice.Service
	handlers *challengehandlers.ChallengeHandlers
	logger   *slog.Logger
}

// NewModule creates the challenge module and registers its routes on
// httpRouter when one is given. Submission routes under /api/challenges are
// registered by the submission module.
func NewModule(
	ctx context.Context,
	cfg *config.Config,
	obs telemetry.Observability,
	repo challengedb.Repository,
	activity challengeservice.ActivityLookup,
	httpRouter chi.Router,
	requireAuth func(http.Handler) http.Handler,
	db *bun.DB,
) (*Module, error) {
	logger := obs.Logger
	logger.InfoContext(ctx, "Initializing challenge module")

	service := challengeservice.NewChallengeService(
		repo,
		activity,
		challengeservice.Config{
			AttachmentsDir: cfg.Attachments.Dir,
			FlagPrefix:     cfg.Flags.Prefix,
		},
		logger,
		obs.Metrics,
		obs.Tracer,
		db,
	)
	handlers := challengehandlers.NewChallengeHandlers(service, logger, obs.Tracer)

	if httpRouter != nil {
		httpRouter.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/api/challenges", handlers.HandleList)
			r.Get("/api/challenges/{id}", handlers.HandleGet)
			r.Get("/api/challenges/{id}/download", handlers.HandleDownload)
			r.Get("/api/categories", handlers.HandleListCategories)

			r.Group(func(r chi.Router) {
				r.Use(authhandlers.RequireAdmin)
				r.Post("/api/challenges", handlers.HandleCreate)
				r.Put("/api/challenges/{id}", handlers.HandleUpdate)
				r.Delete("/api/challenges/{id}", handlers.HandleDelete)

				r.Post("/api/admin/categories", handlers.HandleCreateCategory)
				r.Put("/api/admin/categories/{id}", handlers.HandleUpdateCategory)
				r.Delete("/api/admin/categories/{id}", handlers.HandleDeleteCategory)

				r.Post("/api/admin/flags/generate", handlers.HandleGenerateFlag)
				r.Post("/api/admin/flags/validate", handlers.HandleValidateFlag)
			})
		})
	}

	return &Module{
		service:  service,
		handlers: handlers,
		logger:   logger,
	}, nil
}

// GetService returns the challenge service for use by other modules.
func (m *Module) GetService() challengeservice.Service {
	return m.service
}
