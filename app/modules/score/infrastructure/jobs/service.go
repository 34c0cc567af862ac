package scorejobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Black-And-White-Club/ctf-platform/app/shared/attr"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/telemetry"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
)

const (
	queueName     = "score"
	componentName = "river"
)

// Scheduler runs score recalculation jobs on River, periodically and on demand.
type Scheduler struct {
	client  *river.Client[pgx.Tx]
	pool    *pgxpool.Pool
	logger  *slog.Logger
	metrics telemetry.Metrics
}

// NewScheduler connects a River client to dsn. A non-positive interval
// registers no periodic job; Enqueue still works.
func NewScheduler(
	ctx context.Context,
	dsn string,
	interval time.Duration,
	recalculator Recalculator,
	logger *slog.Logger,
	metrics telemetry.Metrics,
) (*Scheduler, error) {
	logger = logger.With(
		attr.String("component", "river_queue"),
		attr.String("queue", queueName),
	)

	start := time.Now()
	metrics.RecordOperationAttempt(ctx, "initialize_scheduler", componentName)

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		metrics.RecordOperationFailure(ctx, "initialize_scheduler", componentName)
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		metrics.RecordOperationFailure(ctx, "initialize_scheduler", componentName)
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		metrics.RecordOperationFailure(ctx, "initialize_scheduler", componentName)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, NewRecalculateScoresWorker(recalculator, logger))

	riverConfig := &river.Config{
		Logger: logger,
		Queues: map[string]river.QueueConfig{
			queueName: {MaxWorkers: 1},
		},
		Workers: workers,
	}
	if interval > 0 {
		riverConfig.PeriodicJobs = []*river.PeriodicJob{
			river.NewPeriodicJob(
				river.PeriodicInterval(interval),
				func() (river.JobArgs, *river.InsertOpts) {
					return RecalculateScoresJob{Trigger: "periodic"}, &river.InsertOpts{Queue: queueName}
				},
				nil,
			),
		}
	}

	client, err := river.NewClient(riverpgxv5.New(pool), riverConfig)
	if err != nil {
		pool.Close()
		metrics.RecordOperationFailure(ctx, "initialize_scheduler", componentName)
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}

	metrics.RecordOperationSuccess(ctx, "initialize_scheduler", componentName)
	metrics.RecordOperationDuration(ctx, "initialize_scheduler", componentName, time.Since(start))
	logger.InfoContext(ctx, "Score scheduler initialized", attr.Duration("interval", interval))

	return &Scheduler{
		client:  client,
		pool:    pool,
		logger:  logger,
		metrics: metrics,
	}, nil
}

// Start starts working jobs.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.InfoContext(ctx, "Starting score scheduler")
	if err := s.client.Start(ctx); err != nil {
		s.metrics.RecordOperationFailure(ctx, "start_scheduler", componentName)
		return fmt.Errorf("failed to start River client: %w", err)
	}
	return nil
}

// Stop waits for running jobs to finish and closes the pool.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.logger.InfoContext(ctx, "Stopping score scheduler")
	defer s.pool.Close()
	if err := s.client.Stop(ctx); err != nil {
		return fmt.Errorf("failed to stop River client: %w", err)
	}
	return nil
}

// Enqueue schedules a recalculation as soon as a worker is free. Identical
// requests within a minute collapse into one job.
func (s *Scheduler) Enqueue(ctx context.Context, trigger string) error {
	s.metrics.RecordOperationAttempt(ctx, "enqueue_recalculation", componentName)

	res, err := s.client.Insert(ctx, RecalculateScoresJob{Trigger: trigger}, &river.InsertOpts{
		Queue: queueName,
		UniqueOpts: river.UniqueOpts{
			ByArgs:   true,
			ByPeriod: time.Minute,
		},
	})
	if err != nil {
		s.metrics.RecordOperationFailure(ctx, "enqueue_recalculation", componentName)
		return fmt.Errorf("failed to enqueue recalculation: %w", err)
	}

	s.metrics.RecordOperationSuccess(ctx, "enqueue_recalculation", componentName)
	s.logger.InfoContext(ctx, "Recalculation enqueued",
		attr.Int64("job_id", res.Job.ID),
		attr.Bool("duplicate", res.UniqueSkippedAsDuplicate),
	)
	return nil
}
