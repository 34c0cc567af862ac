package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Black-And-White-Club/ctf-platform/app/eventbus"
	"github.com/Black-And-White-Club/ctf-platform/app/modules/admin"
	"github.com/Black-And-White-Club/ctf-platform/app/modules/auth"
	authhandlers "github.com/Black-And-White-Club/ctf-platform/app/modules/auth/infrastructure/handlers"
	"github.com/Black-And-White-Club/ctf-platform/app/modules/challenge"
	challengedb "github.com/Black-And-White-Club/ctf-platform/app/modules/challenge/infrastructure/repositories"
	"github.com/Black-And-White-Club/ctf-platform/app/modules/leaderboard"
	"github.com/Black-And-White-Club/ctf-platform/app/modules/score"
	"github.com/Black-And-White-Club/ctf-platform/app/modules/submission"
	"github.com/Black-And-White-Club/ctf-platform/app/modules/user"
	userdb "github.com/Black-And-White-Club/ctf-platform/app/modules/user/infrastructure/repositories"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/attr"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/httpx"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/ratelimit"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/telemetry"
	"github.com/Black-And-White-Club/ctf-platform/config"
	natsutil "github.com/Black-And-White-Club/ctf-platform/internal/nats"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"golang.org/x/time/rate"
)

const (
	eventBufferSize = 256
	shutdownTimeout = 15 * time.Second
)

// Modules holds every feature module of the platform.
type Modules struct {
	Auth        *auth.Module
	User        *user.Module
	Challenge   *challenge.Module
	Submission  *submission.Module
	Score       *score.Module
	Leaderboard *leaderboard.Module
	Admin       *admin.Module
}

// App wires the modules to the HTTP router, the event bus and the database.
type App struct {
	Config        *config.Config
	Observability telemetry.Observability
	DB            *bun.DB
	EventBus      eventbus.EventBus
	Router        chi.Router
	Modules       Modules

	natsConn *nats.Conn
	relay    *natsutil.Relay
	server   *http.Server
	logger   *slog.Logger
}

// OpenDB opens the bun database over pgdriver and checks it is reachable.
func OpenDB(ctx context.Context, dsn string) (*bun.DB, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}
	return db, nil
}

// NewApp builds every module. Nothing is started until Run.
func NewApp(ctx context.Context, cfg *config.Config, obs telemetry.Observability, db *bun.DB) (*App, error) {
	logger := obs.Logger
	app := &App{
		Config:        cfg,
		Observability: obs,
		DB:            db,
		EventBus:      eventbus.NewEventBus(eventBufferSize, logger),
		logger:        logger,
	}

	app.Router = app.newRouter()
	if err := app.initializeModules(ctx); err != nil {
		_ = app.EventBus.Close()
		return nil, err
	}

	if cfg.NATS.URL != "" {
		conn, err := natsutil.Connect(natsutil.Config{URL: cfg.NATS.URL, NKeySeed: cfg.NATS.NKeySeed}, logger)
		if err != nil {
			_ = app.EventBus.Close()
			return nil, err
		}
		app.natsConn = conn
		app.relay = natsutil.NewRelay(conn, cfg.NATS.Subject, logger)
	}

	app.server = &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return app, nil
}

func (app *App) newRouter() chi.Router {
	cfg := app.Config

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		authhandlers.CORSMiddleware(cfg.HTTP.AllowedOrigins),
		httpx.MaxBodyMiddleware(cfg.HTTP.MaxContentLength),
	)
	if cfg.RateLimitingEnabled() {
		r.Use(authhandlers.RateLimitMiddleware(ratelimit.New(rate.Limit(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.Burst)))
	}

	r.Handle("/metrics", promhttp.HandlerFor(app.Observability.Registry, promhttp.HandlerOpts{}))
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		httpx.Message(w, http.StatusOK, "ok")
	})
	return r
}

// initializeModules builds the modules in dependency order. The shared
// repositories are created up front so modules can read each other's tables
// without importing each other's services.
func (app *App) initializeModules(ctx context.Context) error {
	cfg, obs, db, r := app.Config, app.Observability, app.DB, app.Router

	userRepo := userdb.NewRepository(db)
	challengeRepo := challengedb.NewRepository(db)
	publisher := eventbus.NewPublisher(app.EventBus)

	authModule, err := auth.NewModule(ctx, cfg, obs, userRepo, r)
	if err != nil {
		return fmt.Errorf("failed to initialize auth module: %w", err)
	}
	requireAuth := authModule.RequireAuth

	submissionModule, err := submission.NewModule(ctx, cfg, obs, publisher, challengeRepo, userRepo, r, requireAuth, db)
	if err != nil {
		return fmt.Errorf("failed to initialize submission module: %w", err)
	}
	submissionRepo := submissionModule.GetRepository()

	challengeModule, err := challenge.NewModule(ctx, cfg, obs, challengeRepo, submissionRepo, r, requireAuth, db)
	if err != nil {
		return fmt.Errorf("failed to initialize challenge module: %w", err)
	}

	scoreModule, err := score.NewModule(ctx, cfg, obs, publisher, challengeRepo, submissionRepo, userRepo, db)
	if err != nil {
		return fmt.Errorf("failed to initialize score module: %w", err)
	}

	leaderboardModule, err := leaderboard.NewModule(ctx, cfg, obs, app.EventBus, r, requireAuth, db)
	if err != nil {
		return fmt.Errorf("failed to initialize leaderboard module: %w", err)
	}
	authModule.SetRanker(leaderboardModule.GetService())

	userModule, err := user.NewModule(ctx, obs, userRepo, r, requireAuth, leaderboardModule.GetService(), db)
	if err != nil {
		return fmt.Errorf("failed to initialize user module: %w", err)
	}

	adminModule, err := admin.NewModule(ctx, obs, userRepo, challengeRepo, submissionRepo, scoreModule.GetService(), r, requireAuth)
	if err != nil {
		return fmt.Errorf("failed to initialize admin module: %w", err)
	}

	app.Modules = Modules{
		Auth:        authModule,
		User:        userModule,
		Challenge:   challengeModule,
		Submission:  submissionModule,
		Score:       scoreModule,
		Leaderboard: leaderboardModule,
		Admin:       adminModule,
	}
	return nil
}

// Run bootstraps the admin account, starts the subscribers and the score
// scheduler, then serves HTTP until ctx is cancelled or the server fails.
func (app *App) Run(ctx context.Context) error {
	if err := app.Modules.Auth.Bootstrap(ctx); err != nil {
		return err
	}
	if err := app.Modules.Leaderboard.Run(ctx); err != nil {
		return fmt.Errorf("failed to start leaderboard subscribers: %w", err)
	}
	if app.relay != nil {
		if err := app.relay.Subscribe(ctx, app.EventBus); err != nil {
			return err
		}
	}
	if err := app.Modules.Score.Run(ctx); err != nil {
		return fmt.Errorf("failed to start score scheduler: %w", err)
	}

	serveErr := make(chan error, 1)
	go func() {
		app.logger.InfoContext(ctx, "Starting HTTP server", attr.String("addr", app.server.Addr))
		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	}
}

// Close stops the HTTP server first, then the background workers, then the
// connections they use.
func (app *App) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if app.server != nil {
		if err := app.server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
	}
	if app.Modules.Score != nil {
		if err := app.Modules.Score.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := app.EventBus.Close(); err != nil {
		errs = append(errs, fmt.Errorf("event bus close: %w", err))
	}
	if app.natsConn != nil {
		if err := app.natsConn.Drain(); err != nil {
			errs = append(errs, fmt.Errorf("nats drain: %w", err))
		}
	}
	if app.Modules.Leaderboard != nil {
		if err := app.Modules.Leaderboard.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("database close: %w", err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	app.logger.Info("Application shut down gracefully")
	return nil
}
