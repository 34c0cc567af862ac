package scoreservice

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/Black-And-White-Club/ctf-platform/app/eventbus"
	challengedb "github.com/Black-And-White-Club/ctf-platform/app/modules/challenge/infrastructure/repositories"
	scoredomain "github.com/Black-And-White-Club/ctf-platform/app/modules/score/domain"
	userdb "github.com/Black-And-White-Club/ctf-platform/app/modules/user/infrastructure/repositories"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/apperr"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/attr"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/results"
	"github.com/uptrace/bun"
)

// recalcLockKey is the pg advisory lock shared by every replica.
const recalcLockKey int64 = 0x6374665f7363

var (
	ErrRecalcInProgress = apperr.New(apperr.ErrTransient, "Score recalculation already in progress!")

	errChallengeGone = errors.New("challenge deleted during recalculation")
)

// ChallengeScore is one challenge's value before and after a recalculation.
type ChallengeScore struct {
	ChallengeID    int64 `json:"challenge_id"`
	PreviousPoints int   `json:"previous_points"`
	Points         int   `json:"points"`
	SolvedCount    int   `json:"solved_count"`
}

// RecalcSummary reports a challenge recalculation run.
type RecalcSummary struct {
	Challenges []ChallengeScore `json:"challenges"`
	Updated    int              `json:"updated"`
	FinishedAt time.Time        `json:"finished_at"`
}

// UserRecalcSummary reports a user score rewrite.
type UserRecalcSummary struct {
	Users       int       `json:"users"`
	TotalPoints int       `json:"total_points"`
	FinishedAt  time.Time `json:"finished_at"`
}

// UpdateAllChallengeScores recomputes every challenge's point value from its
// distinct solver count, difficulty and age. Each challenge is rescored in its
// own transaction under its row lock, so concurrent submissions either see the
// old row or the new one. User scores are not touched.
func (s *ScoreService) UpdateAllChallengeScores(ctx context.Context) (*RecalcSummary, error) {
	if !s.running.TryLock() {
		return nil, ErrRecalcInProgress
	}
	defer s.running.Unlock()

	result, err := withTelemetry(s, ctx, "UpdateAllChallengeScores", func(ctx context.Context) (results.OperationResult[RecalcSummary, error], error) {
		return withClusterLock(s, ctx, s.recalculateChallenges)
	})
	summary, err := unwrap(result, err)
	if err != nil {
		return nil, err
	}

	s.announce(ctx, eventbus.ScoresRecalculated{
		Challenges: len(summary.Challenges),
		FinishedAt: summary.FinishedAt,
	})
	return summary, nil
}

func (s *ScoreService) recalculateChallenges(ctx context.Context) (results.OperationResult[RecalcSummary, error], error) {
	start := time.Now()
	now := s.now()

	ids, err := s.challenges.ListIDs(ctx, nil)
	if err != nil {
		return results.OperationResult[RecalcSummary, error]{}, err
	}

	summary := RecalcSummary{Challenges: make([]ChallengeScore, 0, len(ids))}
	for _, id := range ids {
		res, err := runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[ChallengeScore, error], error) {
			return s.rescoreChallenge(ctx, db, id, now)
		})
		if err != nil {
			return results.OperationResult[RecalcSummary, error]{}, fmt.Errorf("failed to rescore challenge %d: %w", id, err)
		}
		if res.IsFailure() {
			s.logger.InfoContext(ctx, "Skipping challenge removed during recalculation",
				attr.ChallengeID(id),
			)
			continue
		}

		score := *res.Success
		if score.Points != score.PreviousPoints {
			summary.Updated++
		}
		summary.Challenges = append(summary.Challenges, score)
	}

	summary.FinishedAt = s.now()
	s.metrics.RecordRecalculation(ctx, len(summary.Challenges), time.Since(start))
	return results.SuccessResult[RecalcSummary, error](summary), nil
}

func (s *ScoreService) rescoreChallenge(ctx context.Context, db bun.IDB, id int64, now time.Time) (results.OperationResult[ChallengeScore, error], error) {
	challenge, err := s.challenges.LockByID(ctx, db, id)
	if errors.Is(err, challengedb.ErrNotFound) {
		return results.FailureResult[ChallengeScore, error](errChallengeGone), nil
	}
	if err != nil {
		return results.OperationResult[ChallengeScore, error]{}, err
	}

	solvers, err := s.submissions.CountDistinctSolvers(ctx, db, id)
	if err != nil {
		return results.OperationResult[ChallengeScore, error]{}, err
	}

	// Admin edits only touch base_points; the batch is what applies them.
	points := challenge.BasePoints
	if s.config.Dynamic {
		points = scoredomain.DynamicScore(scoredomain.ScoreInput{
			Points:     challenge.BasePoints,
			Difficulty: challenge.Difficulty,
			CreatedAt:  challenge.CreatedAt,
			Solvers:    solvers,
			TimeDecay:  true,
			BasePoints: s.config.BasePoints,
		}, now)
	}

	if err := s.challenges.SetScore(ctx, db, id, points, solvers); err != nil {
		return results.OperationResult[ChallengeScore, error]{}, err
	}

	return results.SuccessResult[ChallengeScore, error](ChallengeScore{
		ChallengeID:    id,
		PreviousPoints: challenge.Points,
		Points:         points,
		SolvedCount:    solvers,
	}), nil
}

// RecalculateUserScores rewrites every user's cached score as the sum of the
// current points of the distinct challenges they solved.
func (s *ScoreService) RecalculateUserScores(ctx context.Context) (*UserRecalcSummary, error) {
	if !s.running.TryLock() {
		return nil, ErrRecalcInProgress
	}
	defer s.running.Unlock()

	result, err := withTelemetry(s, ctx, "RecalculateUserScores", func(ctx context.Context) (results.OperationResult[UserRecalcSummary, error], error) {
		return withClusterLock(s, ctx, func(ctx context.Context) (results.OperationResult[UserRecalcSummary, error], error) {
			return runInTx(s, ctx, s.rebuildUserScores)
		})
	})
	summary, err := unwrap(result, err)
	if err != nil {
		return nil, err
	}

	s.announce(ctx, eventbus.ScoresRecalculated{
		Users:      summary.Users,
		FinishedAt: summary.FinishedAt,
	})
	return summary, nil
}

// rebuildUserScores locks the user rows before reading the ledger. A solve
// committed before the lock is read here; one still in flight blocks on its
// score increment and lands on top of the rewritten total.
func (s *ScoreService) rebuildUserScores(ctx context.Context, db bun.IDB) (results.OperationResult[UserRecalcSummary, error], error) {
	if err := s.users.LockScores(ctx, db); err != nil {
		return results.OperationResult[UserRecalcSummary, error]{}, err
	}

	solves, err := s.submissions.DistinctSolves(ctx, db)
	if err != nil {
		return results.OperationResult[UserRecalcSummary, error]{}, err
	}

	byUser := make(map[int64][]scoredomain.SolvedChallenge)
	for _, solve := range solves {
		byUser[solve.UserID] = append(byUser[solve.UserID], scoredomain.SolvedChallenge{
			ChallengeID: solve.ChallengeID,
			Points:      solve.Points,
		})
	}

	scores := make([]userdb.UserScore, 0, len(byUser))
	total := 0
	for userID, solved := range byUser {
		score := scoredomain.AggregateScore(solved)
		total += score
		scores = append(scores, userdb.UserScore{UserID: userID, Score: score})
	}
	sort.Slice(scores, func(i, j int) bool { return scores[i].UserID < scores[j].UserID })

	if err := s.users.SetScores(ctx, db, scores); err != nil {
		return results.OperationResult[UserRecalcSummary, error]{}, err
	}

	return results.SuccessResult[UserRecalcSummary, error](UserRecalcSummary{
		Users:       len(scores),
		TotalPoints: total,
		FinishedAt:  s.now(),
	}), nil
}

// withClusterLock runs fn while holding a transaction-scoped advisory lock,
// so recalculations on other replicas are refused instead of interleaved.
func withClusterLock[S any](s *ScoreService, ctx context.Context, fn func(ctx context.Context) (results.OperationResult[S, error], error)) (results.OperationResult[S, error], error) {
	if s.db == nil {
		return fn(ctx)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return results.OperationResult[S, error]{}, fmt.Errorf("failed to begin lock transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var acquired bool
	if err := tx.NewRaw("SELECT pg_try_advisory_xact_lock(?)", recalcLockKey).Scan(ctx, &acquired); err != nil {
		return results.OperationResult[S, error]{}, fmt.Errorf("failed to acquire recalculation lock: %w", err)
	}
	if !acquired {
		return results.FailureResult[S, error](ErrRecalcInProgress), nil
	}

	result, err := fn(ctx)
	if err != nil {
		return result, err
	}
	if err := tx.Commit(); err != nil {
		return result, fmt.Errorf("failed to release recalculation lock: %w", err)
	}
	return result, nil
}

func (s *ScoreService) announce(ctx context.Context, event eventbus.ScoresRecalculated) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishRecalculated(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish recalculation event",
			attr.ExtractCorrelationID(ctx),
			attr.Error(err),
		)
	}
}
