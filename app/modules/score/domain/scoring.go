// Package scoredomain holds the pure scoring functions: a challenge's dynamic
// point value, the placement bonus table and a user's aggregate score.
package scoredomain

import (
	"strings"
	"time"
)

const (
	// DefaultBasePoints is used when a challenge has no point value of its own.
	DefaultBasePoints = 1000

	// MinimumPoints is the floor every dynamic score is clamped to.
	MinimumPoints = 100

	solverSaturation = 100
	maxSolveDecay    = 0.5
	dailyDecay       = 0.01
	minTimeFactor    = 0.5
)

var difficultyMultipliers = map[string]float64{
	"easy":   0.7,
	"medium": 1.0,
	"hard":   1.5,
	"expert": 2.0,
}

// ScoreInput carries what DynamicScore needs to know about a challenge.
type ScoreInput struct {
	Points     int
	Difficulty string
	CreatedAt  time.Time
	Solvers    int
	TimeDecay  bool
	// BasePoints replaces DefaultBasePoints when Points is unset.
	BasePoints int
}

// DynamicScore computes a challenge's point value. Each multiplication step
// truncates toward zero before the next one runs; the result never drops
// below MinimumPoints.
func DynamicScore(in ScoreInput, now time.Time) int {
	score := in.Points
	if score <= 0 {
		score = in.BasePoints
		if score <= 0 {
			score = DefaultBasePoints
		}
	}

	score = int(float64(score) * DifficultyMultiplier(in.Difficulty))

	if in.Solvers > 0 {
		ratio := float64(in.Solvers) / solverSaturation
		if ratio > 1 {
			ratio = 1
		}
		score = int(float64(score) * (1 - maxSolveDecay*ratio))
	}

	if in.TimeDecay && !in.CreatedAt.IsZero() {
		days := int(now.Sub(in.CreatedAt) / (24 * time.Hour))
		factor := 1 - dailyDecay*float64(days)
		if factor < minTimeFactor {
			factor = minTimeFactor
		}
		// A creation time in the future counts as day zero.
		if factor > 1 {
			factor = 1
		}
		score = int(float64(score) * factor)
	}

	if score < MinimumPoints {
		return MinimumPoints
	}
	return score
}

// DifficultyMultiplier returns the multiplier for a difficulty name, 1.0 when
// the name is not recognized.
func DifficultyMultiplier(difficulty string) float64 {
	if m, ok := difficultyMultipliers[strings.ToLower(strings.TrimSpace(difficulty))]; ok {
		return m
	}
	return 1.0
}

// BloodBonus returns the extra points for solving in the given position
// (1-based). Positions past third earn nothing.
func BloodBonus(position int) int {
	switch position {
	case 1:
		return 100
	case 2:
		return 50
	case 3:
		return 25
	}
	return 0
}

// SolvedChallenge is one correct solve counted by AggregateScore.
type SolvedChallenge struct {
	ChallengeID int64
	Points      int
}

// AggregateScore sums current points over distinct challenge IDs, so a
// duplicate solve of the same challenge is counted once.
func AggregateScore(solved []SolvedChallenge) int {
	seen := make(map[int64]struct{}, len(solved))
	total := 0
	for _, s := range solved {
		if _, ok := seen[s.ChallengeID]; ok {
			continue
		}
		seen[s.ChallengeID] = struct{}{}
		total += s.Points
	}
	return total
}
