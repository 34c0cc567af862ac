package scoreintegrationtests

import (
	"context"
	"sync"
	"testing"
	"time"

	scoreservice "github.com/Black-And-White-Club/ctf-platform/app/modules/score/application"
	scoredomain "github.com/Black-And-White-Club/ctf-platform/app/modules/score/domain"
	scorejobs "github.com/Black-And-White-Club/ctf-platform/app/modules/score/infrastructure/jobs"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/telemetry"
	"github.com/Black-And-White-Club/ctf-platform/integration_tests/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateAllChallengeScores(t *testing.T) {
	deps := SetupTestScoreService(t, scoreservice.Config{Dynamic: true})
	ctx := deps.Ctx

	category := deps.Generator.CreateCategory(t, ctx)
	hard := deps.Generator.CreateChallenge(t, ctx, category.ID, testutils.ChallengeOptions{Points: 400, Difficulty: "hard"})
	easy := deps.Generator.CreateChallenge(t, ctx, category.ID, testutils.ChallengeOptions{Points: 100, Difficulty: "easy"})
	unsolved := deps.Generator.CreateChallenge(t, ctx, category.ID, testutils.ChallengeOptions{Points: 500, Difficulty: "medium"})
	users := deps.Generator.CreateUsers(t, ctx, 3)

	seedSolve(t, deps, users[0].ID, hard.ID, true)
	seedSolve(t, deps, users[1].ID, hard.ID, true)
	seedSolve(t, deps, users[2].ID, hard.ID, false)
	// A duplicate correct row does not count as a second solver.
	seedSolve(t, deps, users[0].ID, hard.ID, true)
	seedSolve(t, deps, users[0].ID, easy.ID, true)

	summary, err := deps.Service.UpdateAllChallengeScores(ctx)
	require.NoError(t, err)
	require.Len(t, summary.Challenges, 3)

	tests := []struct {
		name       string
		id         int64
		basePoints int
		difficulty string
		solvers    int
	}{
		{"hard challenge decays with two solvers", hard.ID, 400, "hard", 2},
		{"easy challenge clamps to the minimum", easy.ID, 100, "easy", 1},
		{"unsolved challenge keeps its difficulty value", unsolved.ID, 500, "medium", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stored, err := deps.Challenges.GetByID(ctx, nil, tt.id)
			require.NoError(t, err)

			want := scoredomain.DynamicScore(scoredomain.ScoreInput{
				Points:     tt.basePoints,
				Difficulty: tt.difficulty,
				CreatedAt:  stored.CreatedAt,
				Solvers:    tt.solvers,
				TimeDecay:  true,
			}, time.Now().UTC())

			assert.Equal(t, want, stored.Points)
			assert.Equal(t, tt.solvers, stored.SolvedCount)
			assert.Equal(t, tt.basePoints, stored.BasePoints, "base points are never rewritten")
		})
	}
}

func TestUpdateAllChallengeScoresStaticKeepsPoints(t *testing.T) {
	deps := SetupTestScoreService(t, scoreservice.Config{Dynamic: false})
	ctx := deps.Ctx

	category := deps.Generator.CreateCategory(t, ctx)
	challenge := deps.Generator.CreateChallenge(t, ctx, category.ID, testutils.ChallengeOptions{Points: 300, Difficulty: "hard"})
	users := deps.Generator.CreateUsers(t, ctx, 2)
	seedSolve(t, deps, users[0].ID, challenge.ID, true)
	seedSolve(t, deps, users[1].ID, challenge.ID, true)

	summary, err := deps.Service.UpdateAllChallengeScores(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Updated)

	stored, err := deps.Challenges.GetByID(ctx, nil, challenge.ID)
	require.NoError(t, err)
	assert.Equal(t, 300, stored.Points)
	assert.Equal(t, 2, stored.SolvedCount, "solve counts are resynchronized")
}

func TestRecalculateUserScores(t *testing.T) {
	deps := SetupTestScoreService(t, scoreservice.Config{Dynamic: false})
	ctx := deps.Ctx

	category := deps.Generator.CreateCategory(t, ctx)
	a := deps.Generator.CreateChallenge(t, ctx, category.ID, testutils.ChallengeOptions{Points: 250})
	b := deps.Generator.CreateChallenge(t, ctx, category.ID, testutils.ChallengeOptions{Points: 75})
	users := deps.Generator.CreateUsers(t, ctx, 3)

	seedSolve(t, deps, users[0].ID, a.ID, true)
	seedSolve(t, deps, users[0].ID, a.ID, true)
	seedSolve(t, deps, users[0].ID, b.ID, true)
	seedSolve(t, deps, users[1].ID, b.ID, true)
	seedSolve(t, deps, users[2].ID, a.ID, false)

	// Stale cache: user 2 has points with no solves behind them.
	require.NoError(t, deps.Users.AddScore(ctx, nil, users[2].ID, 999))

	summary, err := deps.Service.RecalculateUserScores(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Users)
	assert.Equal(t, 400, summary.TotalPoints)

	want := map[int64]int{users[0].ID: 325, users[1].ID: 75, users[2].ID: 0}
	for id, score := range want {
		got, err := deps.Users.GetByID(ctx, nil, id)
		require.NoError(t, err)
		assert.Equal(t, score, got.Score, "user %d", id)
	}
}

func TestConcurrentRecalculationsAreRefused(t *testing.T) {
	deps := SetupTestScoreService(t, scoreservice.Config{Dynamic: true})
	// A second service stands in for another replica sharing the database.
	replica := SetupTestScoreService(t, scoreservice.Config{Dynamic: true})
	ctx := deps.Ctx

	category := deps.Generator.CreateCategory(t, ctx)
	for range 20 {
		deps.Generator.CreateChallenge(t, ctx, category.ID, testutils.ChallengeOptions{})
	}

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i, svc := range []*scoreservice.ScoreService{deps.Service, replica.Service} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = svc.UpdateAllChallengeScores(ctx)
		}()
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, scoreservice.ErrRecalcInProgress)
		}
	}
	assert.False(t, errs[0] != nil && errs[1] != nil, "at least one recalculation runs")
}

func TestSchedulerRunsEnqueuedRecalculation(t *testing.T) {
	deps := SetupTestScoreService(t, scoreservice.Config{Dynamic: true})
	ctx, cancel := context.WithTimeout(deps.Ctx, time.Minute)
	defer cancel()

	category := deps.Generator.CreateCategory(t, ctx)
	challenge := deps.Generator.CreateChallenge(t, ctx, category.ID, testutils.ChallengeOptions{Points: 400, Difficulty: "hard"})
	users := deps.Generator.CreateUsers(t, ctx, 1)
	seedSolve(t, deps, users[0].ID, challenge.ID, true)

	scheduler, err := scorejobs.NewScheduler(ctx, deps.PgConnStr, 0, deps.Service, deps.Logger, telemetry.NewNoop())
	require.NoError(t, err)
	require.NoError(t, scheduler.Start(ctx))
	t.Cleanup(func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer stopCancel()
		_ = scheduler.Stop(stopCtx)
	})

	require.NoError(t, scheduler.Enqueue(ctx, "test"))

	require.Eventually(t, func() bool {
		stored, err := deps.Challenges.GetByID(ctx, nil, challenge.ID)
		return err == nil && stored.SolvedCount == 1 && stored.Points != 400
	}, 30*time.Second, 200*time.Millisecond)
}
