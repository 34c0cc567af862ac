package scoreservice

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Black-And-White-Club/ctf-platform/app/eventbus"
	challengedb "github.com/Black-And-White-Club/ctf-platform/app/modules/challenge/infrastructure/repositories"
	submissiondb "github.com/Black-And-White-Club/ctf-platform/app/modules/submission/infrastructure/repositories"
	userdb "github.com/Black-And-White-Club/ctf-platform/app/modules/user/infrastructure/repositories"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/attr"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/results"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/telemetry"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "score"

// RecalcPublisher announces finished recalculations.
type RecalcPublisher interface {
	PublishRecalculated(ctx context.Context, event eventbus.ScoresRecalculated) error
}

// Config holds the recalculation settings.
type Config struct {
	// Dynamic disables point recomputation when false; solve counts are
	// still resynchronized.
	Dynamic    bool
	BasePoints int
}

// ScoreService implements the Service interface.
type ScoreService struct {
	challenges  challengedb.Repository
	submissions submissiondb.Repository
	users       userdb.Repository
	publisher   RecalcPublisher
	config      Config
	logger      *slog.Logger
	metrics     telemetry.DomainMetrics
	tracer      trace.Tracer
	db          *bun.DB
	now         func() time.Time

	// running keeps a second recalculation in this process from starting.
	running sync.Mutex
}

// NewScoreService creates a new ScoreService.
func NewScoreService(
	challenges challengedb.Repository,
	submissions submissiondb.Repository,
	users userdb.Repository,
	publisher RecalcPublisher,
	config Config,
	logger *slog.Logger,
	metrics telemetry.DomainMetrics,
	tracer trace.Tracer,
	db *bun.DB,
) *ScoreService {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = telemetry.NewNoop()
	}
	return &ScoreService{
		challenges:  challenges,
		submissions: submissions,
		users:       users,
		publisher:   publisher,
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
	s *ScoreService,
	ctx context.Context,
	operationName string,
	op operationFunc[S, F],
) (result results.OperationResult[S, F], err error) {
	if s.tracer != nil {
		var span trace.Span
		ctx, span = s.tracer.Start(ctx, operationName, trace.WithAttributes(
			attribute.String("operation", operationName),
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
		attr.ExtractCorrelationID(ctx),
	)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			s.logger.ErrorContext(ctx, "Critical panic recovered",
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
			attr.Error(err),
		)
		s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
		return result, err
	}

	if result.IsFailure() {
		s.logger.WarnContext(ctx, "Operation returned failure result",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.Any("failure_payload", *result.Failure),
		)
	}

	if result.IsSuccess() {
		s.logger.InfoContext(ctx, operationName+" completed successfully",
			attr.String("operation", operationName),
			attr.ExtractCorrelationID(ctx),
		)
		s.metrics.RecordOperationSuccess(ctx, operationName, serviceName)
	}

	return result, nil
}

// runInTx ensures the operation runs within a transaction.
func runInTx[S any, F any](
	s *ScoreService,
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
