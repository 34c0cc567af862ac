package challengeservice

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	challengedomain "github.com/Black-And-White-Club/ctf-platform/app/modules/challenge/domain"
	challengedb "github.com/Black-And-White-Club/ctf-platform/app/modules/challenge/infrastructure/repositories"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/attr"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/results"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/telemetry"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "challenge"

// ActivityLookup reports which challenges a user has touched. A key present
// in the map means the user has at least one submission there; the value is
// true once one of them was correct.
type ActivityLookup interface {
	ChallengeActivity(ctx context.Context, db bun.IDB, userID int64) (map[int64]bool, error)
}

// Config holds the challenge service settings.
type Config struct {
	AttachmentsDir string
	FlagPrefix     string
}

// ChallengeService implements the Service interface.
type ChallengeService struct {
	repo     challengedb.Repository
	activity ActivityLookup
	config   Config
	logger   *slog.Logger
	metrics  telemetry.Metrics
	tracer   trace.Tracer
	db       *bun.DB
	now      func() time.Time
}

// NewChallengeService creates a new ChallengeService.
func NewChallengeService(
	repo challengedb.Repository,
	activity ActivityLookup,
	config Config,
	logger *slog.Logger,
	metrics telemetry.Metrics,
	tracer trace.Tracer,
	db *bun.DB,
) *ChallengeService {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = telemetry.NewNoop()
	}
	if config.FlagPrefix == "" {
		config.FlagPrefix = challengedomain.DefaultFlagPrefix
	}
	return &ChallengeService{
		repo:     repo,
		activity: activity,
		config:   config,
		logger:   logger,
		metrics:  metrics,
		tracer:   tracer,
		db:       db,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type operationFunc[S any, F any] func(ctx context.Context) (results.OperationResult[S, F], error)

// withTelemetry wraps a service operation with tracing, metrics, and panic recovery.
func withTelemetry[S any, F any](
	s *ChallengeService,
	ctx context.Context,
	operationName string,
	entityID int64,
	op operationFunc[S, F],
) (result results.OperationResult[S, F], err error) {
	if s.tracer != nil {
		var span trace.Span
		ctx, span = s.tracer.Start(ctx, operationName, trace.WithAttributes(
			attribute.String("operation", operationName),
			attribute.Int64("entity_id", entityID),
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
		attr.Int64("entity_id", entityID),
		attr.ExtractCorrelationID(ctx),
	)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			s.logger.ErrorContext(ctx, "Critical panic recovered",
				attr.Int64("entity_id", entityID),
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
			attr.Int64("entity_id", entityID),
			attr.Error(err),
		)
		s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
		return result, err
	}

	if result.IsFailure() {
		s.logger.WarnContext(ctx, "Operation returned failure result",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.Int64("entity_id", entityID),
			attr.Any("failure_payload", *result.Failure),
		)
	}

	if result.IsSuccess() {
		s.logger.InfoContext(ctx, operationName+" completed successfully",
			attr.String("operation", operationName),
			attr.Int64("entity_id", entityID),
			attr.ExtractCorrelationID(ctx),
		)
		s.metrics.RecordOperationSuccess(ctx, operationName, serviceName)
	}

	return result, nil
}

// runInTx ensures the operation runs within a transaction.
func runInTx[S any, F any](
	s *ChallengeService,
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
