package scoreintegrationtests

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace/noop"

	challengedb "github.com/Black-And-White-Club/ctf-platform/app/modules/challenge/infrastructure/repositories"
	scoreservice "github.com/Black-And-White-Club/ctf-platform/app/modules/score/application"
	submissiondb "github.com/Black-And-White-Club/ctf-platform/app/modules/submission/infrastructure/repositories"
	userdb "github.com/Black-And-White-Club/ctf-platform/app/modules/user/infrastructure/repositories"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/telemetry"
	"github.com/Black-And-White-Club/ctf-platform/integration_tests/testutils"
)

type TestDeps struct {
	Ctx         context.Context
	DB          *bun.DB
	PgConnStr   string
	Service     *scoreservice.ScoreService
	Users       userdb.Repository
	Challenges  challengedb.Repository
	Submissions submissiondb.Repository
	Generator   *testutils.TestDataGenerator
	Logger      *slog.Logger
}

func SetupTestScoreService(t *testing.T, config scoreservice.Config) TestDeps {
	t.Helper()
	env := testutils.GetOrCreateTestEnv(t)

	users := userdb.NewRepository(env.DB)
	challenges := challengedb.NewRepository(env.DB)
	submissions := submissiondb.NewRepository(env.DB)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	service := scoreservice.NewScoreService(
		challenges,
		submissions,
		users,
		nil,
		config,
		logger,
		telemetry.NewNoop(),
		noop.NewTracerProvider().Tracer("test_score_service"),
		env.DB,
	)

	return TestDeps{
		Ctx:         env.Ctx,
		DB:          env.DB,
		PgConnStr:   env.PgConnStr,
		Service:     service,
		Users:       users,
		Challenges:  challenges,
		Submissions: submissions,
		Generator:   testutils.NewTestDataGenerator(env.DB, 7),
		Logger:      logger,
	}
}

// seedSolve writes a submission row directly, bypassing the ledger so the
// cached projections drift from the ledger.
func seedSolve(t *testing.T, deps TestDeps, userID, challengeID int64, correct bool) {
	t.Helper()
	err := deps.Submissions.Insert(deps.Ctx, nil, &submissiondb.Submission{
		UserID:        userID,
		ChallengeID:   challengeID,
		FlagSubmitted: "CTF{seeded}",
		IsCorrect:     correct,
		SubmittedAt:   time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("failed to seed submission: %v", err)
	}
}
