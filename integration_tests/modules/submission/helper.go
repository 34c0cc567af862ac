package submissionintegrationtests

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/Black-And-White-Club/ctf-platform/app/eventbus"
	challengedb "github.com/Black-And-White-Club/ctf-platform/app/modules/challenge/infrastructure/repositories"
	submissionservice "github.com/Black-And-White-Club/ctf-platform/app/modules/submission/application"
	submissiondb "github.com/Black-And-White-Club/ctf-platform/app/modules/submission/infrastructure/repositories"
	userdb "github.com/Black-And-White-Club/ctf-platform/app/modules/user/infrastructure/repositories"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/telemetry"
	"github.com/Black-And-White-Club/ctf-platform/integration_tests/testutils"
)

// recordingPublisher captures solve events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []eventbus.ChallengeSolved
}

func (p *recordingPublisher) PublishSolved(_ context.Context, event eventbus.ChallengeSolved) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Events() []eventbus.ChallengeSolved {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]eventbus.ChallengeSolved(nil), p.events...)
}

type TestDeps struct {
	Ctx         context.Context
	DB          *bun.DB
	Service     *submissionservice.SubmissionService
	Users       userdb.Repository
	Challenges  challengedb.Repository
	Submissions submissiondb.Repository
	Publisher   *recordingPublisher
	Generator   *testutils.TestDataGenerator
}

func SetupTestSubmissionService(t *testing.T, config submissionservice.Config) TestDeps {
	t.Helper()
	env := testutils.GetOrCreateTestEnv(t)

	users := userdb.NewRepository(env.DB)
	challenges := challengedb.NewRepository(env.DB)
	submissions := submissiondb.NewRepository(env.DB)
	publisher := &recordingPublisher{}

	if config.LockTimeout == 0 {
		config.LockTimeout = 5 * time.Second
	}

	service := submissionservice.NewSubmissionService(
		submissions,
		challenges,
		users,
		publisher,
		config,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		telemetry.NewNoop(),
		noop.NewTracerProvider().Tracer("test_submission_service"),
		env.DB,
	)

	return TestDeps{
		Ctx:         env.Ctx,
		DB:          env.DB,
		Service:     service,
		Users:       users,
		Challenges:  challenges,
		Submissions: submissions,
		Publisher:   publisher,
		Generator:   testutils.NewTestDataGenerator(env.DB, 42),
	}
}
