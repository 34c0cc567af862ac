package submissionservice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Black-And-White-Club/ctf-platform/app/eventbus"
	authdomain "github.com/Black-And-White-Club/ctf-platform/app/modules/auth/domain"
	challengedomain "github.com/Black-And-White-Club/ctf-platform/app/modules/challenge/domain"
	challengedb "github.com/Black-And-White-Club/ctf-platform/app/modules/challenge/infrastructure/repositories"
	scoredomain "github.com/Black-And-White-Club/ctf-platform/app/modules/score/domain"
	submissiondb "github.com/Black-And-White-Club/ctf-platform/app/modules/submission/infrastructure/repositories"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/apperr"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/attr"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/pgerr"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/results"
	"github.com/uptrace/bun"
)

// MaxSubmittedFlagLength bounds the stored submission text.
const MaxSubmittedFlagLength = 1024

var (
	ErrFlagRequired      = apperr.Validation("Flag is required!")
	ErrFlagTooLong       = apperr.Validation("Flag is too long!")
	ErrChallengeNotFound = apperr.NotFound("Challenge not found!")
	ErrAlreadySolved     = apperr.New(apperr.ErrAlreadySolved, "You have already solved this challenge!")
	ErrChallengeBusy     = apperr.New(apperr.ErrTransient, "Challenge is busy, please retry!")
)

// Verdict is the outcome of a recorded submission.
type Verdict struct {
	Message     string `json:"message"`
	IsCorrect   bool   `json:"is_correct"`
	Points      int    `json:"points,omitempty"`
	FirstBlood  bool   `json:"first_blood,omitempty"`
	SolvedCount int    `json:"-"`
}

type solveOutcome struct {
	verdict   Verdict
	challenge challengedb.Challenge
}

// Submit verifies a flag for caller and records the attempt. A first correct
// solve credits the challenge's current points to the user and bumps
// solved_count in the same transaction, with the challenge row locked so that
// concurrent solvers are serialized and exactly one of them takes first blood.
func (s *SubmissionService) Submit(ctx context.Context, caller authdomain.Identity, challengeID int64, flag string) (*Verdict, error) {
	res, err := withTelemetry(s, ctx, "Submit", challengeID, func(ctx context.Context) (results.OperationResult[solveOutcome, error], error) {
		if strings.TrimSpace(flag) == "" {
			return results.FailureResult[solveOutcome, error](ErrFlagRequired), nil
		}
		if len(flag) > MaxSubmittedFlagLength {
			return results.FailureResult[solveOutcome, error](ErrFlagTooLong), nil
		}

		result, err := runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[solveOutcome, error], error) {
			return s.recordSubmission(ctx, db, caller, challengeID, flag)
		})
		if err != nil && pgerr.IsTransient(err) {
			s.logger.WarnContext(ctx, "Submission lock not acquired",
				attr.ExtractCorrelationID(ctx),
				attr.UserID(caller.UserID),
				attr.ChallengeID(challengeID),
				attr.Error(err),
			)
			return results.FailureResult[solveOutcome, error](ErrChallengeBusy), nil
		}
		return result, err
	})
	outcome, err := unwrap(res, err)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordSubmission(ctx, outcome.verdict.IsCorrect)
	if outcome.verdict.IsCorrect {
		if outcome.verdict.FirstBlood {
			s.metrics.RecordFirstBlood(ctx)
		}
		s.announce(ctx, caller, outcome)
	}
	return &outcome.verdict, nil
}

func (s *SubmissionService) recordSubmission(
	ctx context.Context,
	db bun.IDB,
	caller authdomain.Identity,
	challengeID int64,
	flag string,
) (results.OperationResult[solveOutcome, error], error) {
	if err := s.setLockTimeout(ctx, db); err != nil {
		return results.OperationResult[solveOutcome, error]{}, err
	}

	challenge, err := s.challenges.LockByID(ctx, db, challengeID)
	if err != nil {
		if errors.Is(err, challengedb.ErrNotFound) {
			return results.FailureResult[solveOutcome, error](ErrChallengeNotFound), nil
		}
		return results.OperationResult[solveOutcome, error]{}, err
	}
	if challenge.IsHidden && !caller.IsAdmin {
		return results.FailureResult[solveOutcome, error](ErrChallengeNotFound), nil
	}

	solved, err := s.submissions.HasCorrect(ctx, db, caller.UserID, challengeID)
	if err != nil {
		return results.OperationResult[solveOutcome, error]{}, err
	}
	if solved {
		return results.FailureResult[solveOutcome, error](ErrAlreadySolved), nil
	}

	correct := challengedomain.VerifyFlag(flag, challenge.Flag, s.config.CaseSensitive, true)

	if err := s.submissions.Insert(ctx, db, &submissiondb.Submission{
		UserID:        caller.UserID,
		ChallengeID:   challengeID,
		FlagSubmitted: flag,
		IsCorrect:     correct,
		SubmittedAt:   s.now(),
	}); err != nil {
		return results.OperationResult[solveOutcome, error]{}, err
	}

	if !correct {
		return results.SuccessResult[solveOutcome, error](solveOutcome{
			verdict:   Verdict{Message: "Incorrect flag!"},
			challenge: *challenge,
		}), nil
	}

	solvedCount, err := s.challenges.RecordSolve(ctx, db, challengeID, caller.UserID)
	if err != nil {
		return results.OperationResult[solveOutcome, error]{}, err
	}

	credit := challenge.Points
	if s.config.BloodBonusEnabled {
		credit += scoredomain.BloodBonus(solvedCount)
	}
	if err := s.users.AddScore(ctx, db, caller.UserID, credit); err != nil {
		return results.OperationResult[solveOutcome, error]{}, fmt.Errorf("failed to credit user %d: %w", caller.UserID, err)
	}

	return results.SuccessResult[solveOutcome, error](solveOutcome{
		verdict: Verdict{
			Message:     "Correct flag!",
			IsCorrect:   true,
			Points:      credit,
			FirstBlood:  solvedCount == 1,
			SolvedCount: solvedCount,
		},
		challenge: *challenge,
	}), nil
}

// setLockTimeout scopes a lock_timeout to the current transaction.
func (s *SubmissionService) setLockTimeout(ctx context.Context, db bun.IDB) error {
	if db == nil || s.config.LockTimeout <= 0 {
		return nil
	}
	ms := s.config.LockTimeout.Milliseconds()
	if ms < 1 {
		ms = 1
	}
	if _, err := db.ExecContext(ctx, "SET LOCAL lock_timeout = ?", fmt.Sprintf("%dms", ms)); err != nil {
		return fmt.Errorf("failed to set lock timeout: %w", err)
	}
	return nil
}

// announce publishes the solve after commit. Failures are logged only.
func (s *SubmissionService) announce(ctx context.Context, caller authdomain.Identity, outcome *solveOutcome) {
	if s.publisher == nil {
		return
	}
	event := eventbus.ChallengeSolved{
		ChallengeID:    outcome.challenge.ID,
		ChallengeTitle: outcome.challenge.Title,
		UserID:         caller.UserID,
		Username:       caller.Username,
		Points:         outcome.verdict.Points,
		SolvedCount:    outcome.verdict.SolvedCount,
		FirstBlood:     outcome.verdict.FirstBlood,
		SolvedAt:       s.now(),
	}
	if err := s.publisher.PublishSolved(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish solve event",
			attr.ExtractCorrelationID(ctx),
			attr.UserID(caller.UserID),
			attr.ChallengeID(outcome.challenge.ID),
			attr.Error(err),
		)
	}
}
