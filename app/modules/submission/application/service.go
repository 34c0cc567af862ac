package submissionservice

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/Black-And-White-Club/ctf-platform/app/eventbus"
	challengedb "github.com/Black-And-White-Club/ctf-platform/app/modules/challenge/infrastructure/repositories"
	submissiondb "github.com/Black-And-White-Club/ctf-platform/app/modules/submission/infrastructure/repositories"
	userdb "github.com/Black-And-White-Club/ctf-platform/app/modules/user/infrastructure/repositories"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/attr"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/results"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/telemetry"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/timeparse"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "submission"

// SolvePublisher announces committed solves.
type SolvePublisher interface {
	PublishSolved(ctx context.Context, event eventbus.ChallengeSolved) error
}

// Config holds the ledger settings.
type Config struct {
	CaseSensitive     bool
	BloodBonusEnabled bool
	// LockTimeout bounds how long a submission waits for the challenge row lock.
	LockTimeout time.Duration
}

// SubmissionService implements the Service interface.
type SubmissionService struct {
	submissions submissiondb.Repository
	challenges  challengedb.Repository
	users       userdb.Repository
	publisher   SolvePublisher
	since       *timeparse.Parser
	config      Config
	logger      *slog.Logger
	metrics     telemetry.DomainMetrics
	tracer      trace.Tracer
	db          *bun.DB
	now         func() time.Time
}

// NewSubmissionService creates a new SubmissionService.
func NewSubmissionService(
	submissions submissiondb.Repository,
	challenges challengedb.Repository,
	users userdb.Repository,
	publisher SolvePublisher,
	config Config,
	logger *slog.Logger,
	metrics telemetry.DomainMetrics,
	tracer trace.Tracer,
	db *bun.DB,
) *SubmissionService {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = telemetry.NewNoop()
	}
	return &SubmissionService{
		submissions: submissions,
		challenges:  challenges,
		users:       users,
		publisher:   publisher,
		since:       timeparse.NewParser(),
		config:      config,
		logger:      logger,
		metrics:     metrics,
		tracer:      tracer,
		db:          db,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

type operationFunc[S any, F any] func(ctx context.Context) (results.OperationResult[S, F], error)

// withTelemetry wraps a service operation with tracing, metrics, and panic recovery.
func withTelemetry[S any, F any](
	s *SubmissionService,
	ctx context.Context,
	operationName string,
	challengeID int64,
	op operationFunc[S, F],
) (result results.OperationResult[S, F], err error) {
	if s.tracer != nil {
		var span trace.Span
		ctx, span = s.tracer.Start(ctx, operationName, trace.WithAttributes(
			attribute.String("operation", operationName),
			attribute.Int64("challenge_id", challengeID),
		))
		defer func() {
			if err != nil {
				span.RecordError(err)
			}
			span.End()
		}()
	}

	s.metrics.RecordOperationAttempt(ctx, operationName, serviceName)
	start := time.Now()
	defer func() {
		s.metrics.RecordOperationDuration(ctx, operationName, serviceName, time.Since(start))
	}()

	s.logger.InfoContext(ctx, operationName+" triggered",
		attr.String("operation", operationName),
		attr.ChallengeID(challengeID),
		attr.ExtractCorrelationID(ctx),
	)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			s.logger.ErrorContext(ctx, "Critical panic recovered",
				attr.ChallengeID(challengeID),
				attr.ExtractCorrelationID(ctx),
				attr.Error(err),
			)
			s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
			result = results.OperationResult[S, F]{}
		}
	}()

	result, err = op(ctx)
	if err != nil {
		err = fmt.Errorf("%s: %w", operationName, err)
		s.logger.ErrorContext(ctx, "Operation failed with error",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.ChallengeID(challengeID),
			attr.Error(err),
		)
		s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
		return result, err
	}

	if result.IsFailure() {
		s.logger.WarnContext(ctx, "Operation returned failure result",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.ChallengeID(challengeID),
			attr.Any("failure_payload", *result.Failure),
		)
	}

	if result.IsSuccess() {
		s.logger.InfoContext(ctx, operationName+" completed successfully",
			attr.String("operation", operationName),
			attr.ChallengeID(challengeID),
			attr.ExtractCorrelationID(ctx),
		)
		s.metrics.RecordOperationSuccess(ctx, operationName, serviceName)
	}

	return result, nil
}

// runInTx ensures the operation runs within a transaction.
func runInTx[S any, F any](
	s *SubmissionService,
	ctx context.Context,
	fn func(ctx context.Context, db bun.IDB) (results.OperationResult[S, F], error),
) (results.OperationResult[S, F], error) {
	if s.db == nil {
		return fn(ctx, nil)
	}

	var result results.OperationResult[S, F]
	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var txErr error
		result, txErr = fn(ctx, tx)
		return txErr
	})
	return result, err
}

// unwrap flattens an OperationResult into the (value, error) pair handlers expect.
func unwrap[S any](result results.OperationResult[S, error], err error) (*S, error) {
	if err != nil {
		return nil, err
	}
	if result.IsFailure() {
		return nil, *result.Failure
	}
	return result.Success, nil
}
