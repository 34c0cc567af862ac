package leaderboard

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Black-And-White-Club/ctf-platform/app/eventbus"
	leaderboardservice "github.com/Black-And-White-Club/ctf-platform/app/modules/leaderboard/application"
	leaderboardcache "github.com/Black-And-White-Club/ctf-platform/app/modules/leaderboard/infrastructure/cache"
	leaderboardhandlers "github.com/Black-And-White-Club/ctf-platform/app/modules/leaderboard/infrastructure/handlers"
	leaderboarddb "github.com/Black-And-White-Club/ctf-platform/app/modules/leaderboard/infrastructure/repositories"
	leaderboardsubscribers "github.com/Black-And-White-Club/ctf-platform/app/modules/leaderboard/infrastructure/subscribers"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/attr"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/telemetry"
	"github.com/Black-And-White-Club/ctf-platform/config"
	"github.com/go-chi/chi/v5"
	"github.com/uptrace/bun"
)

// Module represents the leaderboard module.
type Module struct {
	service     *leaderboardservice.LeaderboardService
	cache       *leaderboardcache.Cache
	subscribers *leaderboardsubscribers.LeaderboardSubscribers
	logger      *slog.Logger
}

// NewModule creates the leaderboard module. Global pages are cached in Redis
// when redis.url is configured.
func NewModule(
	ctx context.Context,
	cfg *config.Config,
	obs telemetry.Observability,
	bus eventbus.EventBus,
	httpRouter chi.Router,
	requireAuth func(http.Handler) http.Handler,
	db *bun.DB,
) (*Module, error) {
	logger := obs.Logger
	logger.InfoContext(ctx, "Initializing leaderboard module")

	var cache *leaderboardcache.Cache
	var pageCache leaderboardservice.PageCache
	if cfg.Redis.URL != "" {
		client, err := leaderboardcache.Connect(ctx, cfg.Redis.URL, cfg.Redis.PoolSize)
		if err != nil {
			return nil, fmt.Errorf("failed to connect leaderboard cache: %w", err)
		}
		cache = leaderboardcache.New(client, cfg.Redis.LeaderboardTTL)
		pageCache = cache
	} else {
		logger.InfoContext(ctx, "Redis not configured, leaderboard runs without a cache")
	}

	service := leaderboardservice.NewLeaderboardService(leaderboarddb.NewRepository(db), pageCache, logger, obs.Tracer)
	handlers := leaderboardhandlers.NewLeaderboardHandlers(service, logger, obs.Tracer)

	if httpRouter != nil {
		httpRouter.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/api/leaderboard", handlers.HandleGlobal)
			r.Get("/api/leaderboard/chart.png", handlers.HandleChart)
			r.Get("/api/leaderboard/category/{id}", handlers.HandleCategory)
			r.Get("/api/leaderboard/challenge/{id}", handlers.HandleChallenge)
		})
	}

	m := &Module{
		service: service,
		cache:   cache,
		logger:  logger,
	}
	if bus != nil {
		m.subscribers = leaderboardsubscribers.NewLeaderboardSubscribers(bus, service, logger)
	}
	return m, nil
}

// Run subscribes the cache invalidation handlers.
func (m *Module) Run(ctx context.Context) error {
	if m.subscribers == nil {
		return nil
	}
	return m.subscribers.SubscribeToLeaderboardEvents(ctx)
}

// Close releases the cache connection.
func (m *Module) Close() error {
	if m.cache == nil {
		return nil
	}
	if err := m.cache.Close(); err != nil {
		m.logger.Error("Error closing leaderboard cache", attr.Error(err))
		return err
	}
	return nil
}

// GetService returns the leaderboard service. It also ranks users for the
// auth profile.
func (m *Module) GetService() leaderboardservice.Service {
	return m.service
}
