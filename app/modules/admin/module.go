package admin

import (
	"context"
	"log/slog"
	"net/http"

	adminservice "github.com/Black-And-White-Club/ctf-platform/app/modules/admin/application"
	adminhandlers "github.com/Black-And-White-Club/ctf-platform/app/modules/admin/infrastructure/handlers"
	authhandlers "github.com/Black-And-White-Club/ctf-platform/app/modules/auth/infrastructure/handlers"
	challengedb "github.com/Black-And-White-Club/ctf-platform/app/modules/challenge/infrastructure/repositories"
	scoreservice "github.com/Black-And-White-Club/ctf-platform/app/modules/score/application"
	submissiondb "github.com/Black-And-White-Club/ctf-platform/app/modules/submission/infrastructure/repositories"
	userdb "github.com/Black-And-White-Club/ctf-platform/app/modules/user/infrastructure/repositories"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/telemetry"
	"github.com/go-chi/chi/v5"
)

// Module represents the admin reporting module.
type Module struct {
	service adminservice.Service
	logger  *slog.Logger
}

// NewModule creates the admin module and registers its routes behind
// requireAuth and the admin check.
func NewModule(
	ctx context.Context,
	obs telemetry.Observability,
	userRepo userdb.Repository,
	challengeRepo challengedb.Repository,
	submissionRepo submissiondb.Repository,
	scores scoreservice.Service,
	httpRouter chi.Router,
	requireAuth func(http.Handler) http.Handler,
) (*Module, error) {
	logger := obs.Logger
	logger.InfoContext(ctx, "Initializing admin module")

	service := adminservice.NewAdminService(userRepo, challengeRepo, submissionRepo, logger, obs.Tracer)
	handlers := adminhandlers.NewAdminHandlers(service, scores, logger, obs.Tracer)

	if httpRouter != nil {
		httpRouter.Group(func(r chi.Router) {
			r.Use(requireAuth, authhandlers.RequireAdmin)
			r.Get("/api/admin/stats", handlers.HandleStats)
			r.Post("/api/admin/backup", handlers.HandleBackup)
			r.Post("/api/admin/update-scores", handlers.HandleUpdateScores)
			r.Post("/api/admin/recalculate-users", handlers.HandleRecalculateUsers)
			r.Get("/api/admin/export-data", handlers.HandleExport)
		})
	}

	return &Module{service: service, logger: logger}, nil
}

// GetService returns the admin service.
func (m *Module) GetService() adminservice.Service {
	return m.service
}
