package leaderboardintegrationtests

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/Black-And-White-Club/ctf-platform/app/eventbus"
	authdomain "github.com/Black-And-White-Club/ctf-platform/app/modules/auth/domain"
	challengedb "github.com/Black-And-White-Club/ctf-platform/app/modules/challenge/infrastructure/repositories"
	leaderboardservice "github.com/Black-And-White-Club/ctf-platform/app/modules/leaderboard/application"
	leaderboardcache "github.com/Black-And-White-Club/ctf-platform/app/modules/leaderboard/infrastructure/cache"
	leaderboarddb "github.com/Black-And-White-Club/ctf-platform/app/modules/leaderboard/infrastructure/repositories"
	leaderboardsubscribers "github.com/Black-And-White-Club/ctf-platform/app/modules/leaderboard/infrastructure/subscribers"
	submissionservice "github.com/Black-And-White-Club/ctf-platform/app/modules/submission/application"
	submissiondb "github.com/Black-And-White-Club/ctf-platform/app/modules/submission/infrastructure/repositories"
	userdb "github.com/Black-And-White-Club/ctf-platform/app/modules/user/infrastructure/repositories"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/telemetry"
	"github.com/Black-And-White-Club/ctf-platform/integration_tests/testutils"
)

type TestDeps struct {
	Ctx         context.Context
	DB          *bun.DB
	Leaderboard *leaderboardservice.LeaderboardService
	Submissions *submissionservice.SubmissionService
	Users       userdb.Repository
	Generator   *testutils.TestDataGenerator
	Redis       *miniredis.Miniredis
}

// SetupTestLeaderboard wires the ledger and the leaderboard over one event
// bus, with the global board cached in an in-memory Redis.
func SetupTestLeaderboard(t *testing.T) TestDeps {
	t.Helper()
	env := testutils.GetOrCreateTestEnv(t)

	ctx, cancel := context.WithCancel(env.Ctx)
	t.Cleanup(cancel)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tracer := noop.NewTracerProvider().Tracer("test_leaderboard")

	bus := eventbus.NewEventBus(64, logger)
	t.Cleanup(func() { _ = bus.Close() })

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := leaderboardcache.New(client, time.Minute)
	t.Cleanup(func() { _ = cache.Close() })

	users := userdb.NewRepository(env.DB)
	challenges := challengedb.NewRepository(env.DB)

	board := leaderboardservice.NewLeaderboardService(leaderboarddb.NewRepository(env.DB), cache, logger, tracer)
	subs := leaderboardsubscribers.NewLeaderboardSubscribers(bus, board, logger)
	if err := subs.SubscribeToLeaderboardEvents(ctx); err != nil {
		t.Fatalf("failed to subscribe leaderboard: %v", err)
	}

	ledger := submissionservice.NewSubmissionService(
		submissiondb.NewRepository(env.DB),
		challenges,
		users,
		eventbus.NewPublisher(bus),
		submissionservice.Config{LockTimeout: 5 * time.Second},
		logger,
		telemetry.NewNoop(),
		tracer,
		env.DB,
	)

	return TestDeps{
		Ctx:         ctx,
		DB:          env.DB,
		Leaderboard: board,
		Submissions: ledger,
		Users:       users,
		Generator:   testutils.NewTestDataGenerator(env.DB, 99),
		Redis:       mr,
	}
}

func (d TestDeps) solve(t *testing.T, user userdb.User, challenge challengedb.Challenge) {
	t.Helper()
	verdict, err := d.Submissions.Submit(d.Ctx, authdomain.Identity{UserID: user.ID, Username: user.Username}, challenge.ID, challenge.Flag)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if !verdict.IsCorrect {
		t.Fatalf("expected correct verdict for %s", challenge.Flag)
	}
}
