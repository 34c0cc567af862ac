package testutils

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"

	challengemigrations "github.com/Black-And-White-Club/ctf-platform/app/modules/challenge/infrastructure/repositories/migrations"
	submissionmigrations "github.com/Black-And-White-Club/ctf-platform/app/modules/submission/infrastructure/repositories/migrations"
	usermigrations "github.com/Black-And-White-Club/ctf-platform/app/modules/user/infrastructure/repositories/migrations"
)

// appTables lists the application tables in truncation order.
var appTables = []string{"submissions", "challenges", "categories", "users"}

// RunMigrations applies the River schema and then every module's migrations
// in dependency order.
func RunMigrations(ctx context.Context, db *bun.DB, pgConnStr string) error {
	if err := migrate.NewMigrator(db, usermigrations.Migrations).Init(ctx); err != nil {
		return fmt.Errorf("failed to initialize migration tables: %w", err)
	}

	if err := runRiverMigrations(ctx, pgConnStr); err != nil {
		return err
	}

	modules := []struct {
		name       string
		migrations *migrate.Migrations
	}{
		{"user", usermigrations.Migrations},
		{"challenge", challengemigrations.Migrations},
		{"submission", submissionmigrations.Migrations},
	}
	for _, m := range modules {
		group, err := migrate.NewMigrator(db, m.migrations).Migrate(ctx)
		if err != nil {
			return fmt.Errorf("failed to run %s migrations: %w", m.name, err)
		}
		if group.IsZero() {
			log.Printf("No %s migrations to run", m.name)
		} else {
			log.Printf("Ran %s migrations group #%d", m.name, group.ID)
		}
	}
	return nil
}

func runRiverMigrations(ctx context.Context, pgConnStr string) error {
	pool, err := pgxpool.New(ctx, pgConnStr)
	if err != nil {
		return fmt.Errorf("failed to create pgx pool for River: %w", err)
	}
	defer pool.Close()

	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		return fmt.Errorf("failed to create River migrator: %w", err)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, &rivermigrate.MigrateOpts{}); err != nil {
		return fmt.Errorf("failed to run River migrations: %w", err)
	}
	return nil
}

// CleanupDatabase truncates the application tables and the River job table.
func CleanupDatabase(ctx context.Context, db *bun.DB) error {
	query := fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", strings.Join(appTables, ", "))
	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to truncate tables: %w", err)
	}
	if _, err := db.ExecContext(ctx, "DELETE FROM river_job"); err != nil {
		if !strings.Contains(err.Error(), "does not exist") {
			return fmt.Errorf("failed to cleanup river jobs: %w", err)
		}
	}
	return nil
}
