package scoreservice

import "context"

// Service recomputes challenge point values and rebuilds cached user scores.
type Service interface {
	UpdateAllChallengeScores(ctx context.Context) (*RecalcSummary, error)
	RecalculateUserScores(ctx context.Context) (*UserRecalcSummary, error)
}

var _ Service = (*ScoreService)(nil)
