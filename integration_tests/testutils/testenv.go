package testutils

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/Black-And-White-Club/ctf-platform/integration_tests/containers"
)

// TestEnvironment holds the resources shared by the integration tests of one
// test binary.
type TestEnvironment struct {
	Ctx         context.Context
	PgContainer *postgres.PostgresContainer
	PgConnStr   string
	DB          *bun.DB
}

var (
	globalEnv     *TestEnvironment
	globalEnvErr  error
	globalEnvOnce sync.Once
)

// GetOrCreateTestEnv returns the shared environment, starting Postgres and
// running every migration on first use. It skips the test under -short.
func GetOrCreateTestEnv(t *testing.T) *TestEnvironment {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	globalEnvOnce.Do(func() {
		globalEnv, globalEnvErr = newTestEnvironment(context.Background())
	})
	if globalEnvErr != nil {
		t.Fatalf("failed to set up test environment: %v", globalEnvErr)
	}
	if err := CleanupDatabase(globalEnv.Ctx, globalEnv.DB); err != nil {
		t.Fatalf("failed to clean database: %v", err)
	}
	return globalEnv
}

func newTestEnvironment(ctx context.Context) (*TestEnvironment, error) {
	pgContainer, pgConnStr, err := containers.SetupPostgresContainer(ctx)
	if err != nil {
		return nil, err
	}

	sqlDB, err := sql.Open("pgx", pgConnStr)
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to open sql DB connection: %w", err)
	}
	sqlDB.SetMaxOpenConns(20)
	db := bun.NewDB(sqlDB, pgdialect.New())

	if err := RunMigrations(ctx, db, pgConnStr); err != nil {
		_ = db.Close()
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &TestEnvironment{
		Ctx:         ctx,
		PgContainer: pgContainer,
		PgConnStr:   pgConnStr,
		DB:          db,
	}, nil
}

// Shutdown closes the shared environment. Call it from TestMain.
func Shutdown() {
	if globalEnv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := globalEnv.DB.Close(); err != nil {
		log.Printf("Failed to close test DB: %v", err)
	}
	if err := globalEnv.PgContainer.Terminate(ctx); err != nil {
		log.Printf("Failed to terminate postgres container: %v", err)
	}
	globalEnv = nil
}
