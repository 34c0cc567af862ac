package user

import (
	"context"
	"log/slog"
	"net/http"

	authhandlers "github.com/Black-And-White-Club/ctf-platform/app/modules/auth/infrastructure/handlers"
	userservice "github.com/Black-And-White-Club/ctf-platform/app/modules/user/application"
	userhandlers "github.com/Black-And-White-Club/ctf-platform/app/modules/user/infrastructure/handlers"
	userdb "github.com/Black-And-White-Club/ctf-platform/app/modules/user/infrastructure/repositories"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/uptrace/bun"
)

// BoardInvalidator drops cached leaderboard pages.
type BoardInvalidator interface {
	Invalidate(ctx context.Context)
}

// Module represents the user management module.
type Module struct {
	service *userservice.UserService
	logger  *slog.Logger
}

// NewModule creates the user module and registers the admin user routes.
func NewModule(
	ctx context.Context,
	obs telemetry.Observability,
	repo userdb.Repository,
	httpRouter chi.Router,
	requireAuth func(http.Handler) http.Handler,
	boards BoardInvalidator,
	db *bun.DB,
) (*Module, error) {
	logger := obs.Logger
	logger.InfoContext(ctx, "Initializing user module")

	service := userservice.NewUserService(repo, logger, obs.Metrics, obs.Tracer, db)
	if boards != nil {
		service.OnChange(boards.Invalidate)
	}
	handlers := userhandlers.NewUserHandlers(service, logger, obs.Tracer)

	if httpRouter != nil {
		httpRouter.Group(func(r chi.Router) {
			r.Use(requireAuth, authhandlers.RequireAdmin)
			r.Get("/api/admin/users", handlers.HandleList)
			r.Put("/api/admin/users/{id}", handlers.HandleUpdate)
			r.Delete("/api/admin/users/{id}", handlers.HandleDelete)
		})
	}

	return &Module{service: service, logger: logger}, nil
}

// GetService returns the user service for use by other modules.
func (m *Module) GetService() userservice.Service {
	return m.service
}
