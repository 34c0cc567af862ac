package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	authservice "github.com/Black-And-White-Club/ctf-platform/app/modules/auth/application"
	authhandlers "github.com/Black-And-White-Club/ctf-platform/app/modules/auth/infrastructure/handlers"
	authjwt "github.com/Black-And-White-Club/ctf-platform/app/modules/auth/infrastructure/jwt"
	userdb "github.com/Black-And-White-Club/ctf-platform/app/modules/user/infrastructure/repositories"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/attr"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/telemetry"
	"github.com/Black-And-White-Club/ctf-platform/config"
	"github.com/go-chi/chi/v5"
)

// Module represents the auth module.
type Module struct {
	config   *config.Config
	service  authservice.Service
	handlers *authhandlers.AuthHandlers
	ranker   *rankerRef
	logger   *slog.Logger
}

// NewModule creates the auth module and registers /api/auth on httpRouter
// when one is given.
func NewModule(
	ctx context.Context,
	cfg *config.Config,
	obs telemetry.Observability,
	userRepo userdb.Repository,
	httpRouter chi.Router,
) (*Module, error) {
	logger := obs.Logger
	logger.InfoContext(ctx, "Initializing auth module")

	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("jwt secret is not configured")
	}

	ranker := &rankerRef{}
	service := authservice.NewService(
		authjwt.NewProvider(cfg.JWT.Secret),
		userRepo,
		ranker,
		authservice.Config{
			TokenTTL:         cfg.JWT.TTL,
			RegistrationOpen: cfg.RegistrationIsOpen(),
		},
		logger,
		obs.Tracer,
	)
	handlers := authhandlers.NewAuthHandlers(service, logger, obs.Tracer)

	if httpRouter != nil {
		httpRouter.Route("/api/auth", func(r chi.Router) {
			r.Post("/register", handlers.HandleRegister)
			r.Post("/login", handlers.HandleLogin)

			r.Group(func(r chi.Router) {
				r.Use(handlers.RequireAuth)
				r.Get("/profile", handlers.HandleGetProfile)
				r.Put("/profile", handlers.HandleUpdateProfile)
			})
		})
	}

	return &Module{
		config:   cfg,
		service:  service,
		handlers: handlers,
		ranker:   ranker,
		logger:   logger,
	}, nil
}

// Bootstrap creates or promotes the configured administrator account.
func (m *Module) Bootstrap(ctx context.Context) error {
	b := m.config.Bootstrap
	if b.AdminUsername == "" || b.AdminPassword == "" {
		m.logger.WarnContext(ctx, "Bootstrap admin not configured, skipping")
		return nil
	}
	if err := m.service.EnsureAdmin(ctx, b.AdminUsername, b.AdminEmail, b.AdminPassword); err != nil {
		m.logger.ErrorContext(ctx, "Failed to ensure bootstrap admin", attr.Error(err))
		return fmt.Errorf("failed to ensure bootstrap admin: %w", err)
	}
	return nil
}

// SetRanker attaches the leaderboard so profiles carry a rank. The
// leaderboard module is built after auth because its routes need RequireAuth.
func (m *Module) SetRanker(r authservice.Ranker) {
	m.ranker.set(r)
}

// RequireAuth is the bearer-token middleware for other modules' routes.
func (m *Module) RequireAuth(next http.Handler) http.Handler {
	return m.handlers.RequireAuth(next)
}

// GetService returns the auth service for use by other modules.
func (m *Module) GetService() authservice.Service {
	return m.service
}

type rankerRef struct {
	mu     sync.RWMutex
	target authservice.Ranker
}

func (r *rankerRef) set(target authservice.Ranker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.target = target
}

func (r *rankerRef) UserRank(ctx context.Context, userID int64) (int, error) {
	r.mu.RLock()
	target := r.target
	r.mu.RUnlock()
	if target == nil {
		return 0, nil
	}
	return target.UserRank(ctx, userID)
}

func (r *rankerRef) Invalidate(ctx context.Context) {
	r.mu.RLock()
	target := r.target
	r.mu.RUnlock()
	if target != nil {
		target.Invalidate(ctx)
	}
}
