package scorejobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	scoreservice "github.com/Black-And-White-Club/ctf-platform/app/modules/score/application"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/attr"
	"github.com/riverqueue/river"
)

// Recalculator is the part of the score service the worker drives.
type Recalculator interface {
	UpdateAllChallengeScores(ctx context.Context) (*scoreservice.RecalcSummary, error)
}

// RecalculateScoresWorker runs RecalculateScoresJob.
type RecalculateScoresWorker struct {
	river.WorkerDefaults[RecalculateScoresJob]

	recalculator Recalculator
	logger       *slog.Logger
}

// NewRecalculateScoresWorker creates a new RecalculateScoresWorker.
func NewRecalculateScoresWorker(recalculator Recalculator, logger *slog.Logger) *RecalculateScoresWorker {
	return &RecalculateScoresWorker{
		recalculator: recalculator,
		logger:       logger,
	}
}

// Work runs one recalculation. A run already in progress elsewhere counts as
// done; the next period picks up whatever it missed.
func (w *RecalculateScoresWorker) Work(ctx context.Context, job *river.Job[RecalculateScoresJob]) error {
	logger := w.logger.With(
		attr.Int64("job_id", job.ID),
		attr.String("trigger", job.Args.Trigger),
	)

	summary, err := w.recalculator.UpdateAllChallengeScores(ctx)
	if errors.Is(err, scoreservice.ErrRecalcInProgress) {
		logger.InfoContext(ctx, "Recalculation already running, skipping job")
		return nil
	}
	if err != nil {
		logger.ErrorContext(ctx, "Scheduled recalculation failed", attr.Error(err))
		return fmt.Errorf("failed to recalculate challenge scores: %w", err)
	}

	logger.InfoContext(ctx, "Scheduled recalculation finished",
		attr.Int("challenges", len(summary.Challenges)),
		attr.Int("updated", summary.Updated),
	)
	return nil
}
