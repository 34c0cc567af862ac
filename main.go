package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Black-And-White-Club/ctf-platform/app"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/attr"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/telemetry"
	"github.com/Black-And-White-Club/ctf-platform/config"
)

func main() {
	configFile := flag.String("config", "config.yaml", "Path to the configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	obs := telemetry.NewObservability(telemetry.Config{
		ServiceName: "ctf-platform",
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
	})
	logger := obs.Logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := app.OpenDB(ctx, cfg.Postgres.DSN)
	if err != nil {
		logger.Error("Failed to open database", attr.Error(err))
		os.Exit(1)
	}

	application, err := app.NewApp(ctx, cfg, obs, db)
	if err != nil {
		logger.Error("Failed to initialize app", attr.Error(err))
		_ = db.Close()
		os.Exit(1)
	}

	runErr := application.Run(ctx)
	if runErr != nil {
		logger.Error("Application stopped with error", attr.Error(runErr))
	} else {
		logger.Info("Shutdown signal received")
	}

	if err := application.Close(); err != nil {
		logger.Error("Error during shutdown", attr.Error(err))
		os.Exit(1)
	}
	if runErr != nil {
		os.Exit(1)
	}
}
