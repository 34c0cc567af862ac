package submissionservice

import (
	"context"
	"testing"
	"time"

	submissiondb "github.com/Black-And-White-Club/ctf-platform/app/modules/submission/infrastructure/repositories"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/apperr"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/httpx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func TestSubmissionService_ListSubmissions(t *testing.T) {
	ctx := context.Background()
	page := httpx.PageRequest{Page: 2, PerPage: 10}

	rows := []submissiondb.Submission{
		{ID: 2, UserID: player.UserID, ChallengeID: 3, FlagSubmitted: "CTF{mine}", SubmittedAt: fixedNow},
		{ID: 1, UserID: 99, ChallengeID: 3, FlagSubmitted: "CTF{theirs}", SubmittedAt: fixedNow.Add(-time.Minute)},
	}

	tests := []struct {
		name       string
		caller     bool
		query      ListQuery
		wantErr    error
		wantFilter submissiondb.ListFilter
	}{
		{
			name:       "player is pinned to their own rows",
			query:      ListQuery{Page: page, ChallengeID: 3},
			wantFilter: submissiondb.ListFilter{UserID: player.UserID, ChallengeID: 3},
		},
		{
			name:    "player may not filter by user",
			query:   ListQuery{Page: page, UserID: 99},
			wantErr: apperr.ErrForbidden,
		},
		{
			name:       "admin filters freely",
			caller:     true,
			query:      ListQuery{Page: page, UserID: 99},
			wantFilter: submissiondb.ListFilter{UserID: 99},
		},
		{
			name:       "since accepts natural language",
			caller:     true,
			query:      ListQuery{Page: page, Since: "2026-02-27"},
			wantFilter: submissiondb.ListFilter{Since: time.Date(2026, 2, 27, 0, 0, 0, 0, time.UTC)},
		},
		{
			name:    "since in the future rejected",
			caller:  true,
			query:   ListQuery{Page: page, Since: "2030-01-01"},
			wantErr: apperr.ErrValidation,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakes()
			f.submissions.ListFn = func(ctx context.Context, db bun.IDB, filter submissiondb.ListFilter, offset, limit int) ([]submissiondb.Submission, int, error) {
				assert.Equal(t, tt.wantFilter, filter)
				assert.Equal(t, 10, offset)
				assert.Equal(t, 10, limit)
				return rows, 21, nil
			}
			s := f.service(Config{})
			caller := player
			if tt.caller {
				caller = admin
			}

			got, err := s.ListSubmissions(ctx, caller, tt.query)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 21, got.Total)
			assert.Equal(t, 3, got.Pages)
			assert.Equal(t, 2, got.CurrentPage)
			require.Len(t, got.Submissions, 2)
		})
	}
}

func TestSubmissionService_FlagVisibility(t *testing.T) {
	f := newFakes()
	f.submissions.ListFn = func(ctx context.Context, db bun.IDB, filter submissiondb.ListFilter, offset, limit int) ([]submissiondb.Submission, int, error) {
		return []submissiondb.Submission{
			{ID: 2, UserID: player.UserID, FlagSubmitted: "CTF{mine}"},
			{ID: 1, UserID: 99, FlagSubmitted: "CTF{theirs}"},
		}, 2, nil
	}
	s := f.service(Config{})
	page := httpx.PageRequest{Page: 1, PerPage: 20}

	got, err := s.ListChallengeSubmissions(context.Background(), player, 3, page)
	require.NoError(t, err)
	require.NotNil(t, got.Submissions[0].FlagSubmitted)
	assert.Equal(t, "CTF{mine}", *got.Submissions[0].FlagSubmitted)
	assert.Nil(t, got.Submissions[1].FlagSubmitted)

	got, err = s.ListChallengeSubmissions(context.Background(), admin, 3, page)
	require.NoError(t, err)
	assert.NotNil(t, got.Submissions[1].FlagSubmitted)

	_, err = s.ListUserSubmissions(context.Background(), player, 99, page)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestSubmissionService_GetStats(t *testing.T) {
	f := newFakes()
	f.submissions.CountsFn = func(ctx context.Context, db bun.IDB, filter submissiondb.ListFilter) (submissiondb.Counts, error) {
		switch {
		case filter.UserID == player.UserID:
			return submissiondb.Counts{Total: 4, Correct: 1}, nil
		case !filter.Since.IsZero():
			assert.Equal(t, fixedNow.Add(-7*24*time.Hour), filter.Since)
			return submissiondb.Counts{Total: 6, Correct: 2}, nil
		default:
			return submissiondb.Counts{Total: 8, Correct: 2}, nil
		}
	}
	s := f.service(Config{})

	stats, err := s.GetStats(context.Background(), player)
	require.NoError(t, err)
	assert.Equal(t, &Stats{
		TotalSubmissions:   8,
		CorrectSubmissions: 2,
		AccuracyRate:       25,
		UserTotal:          4,
		UserCorrect:        1,
		UserAccuracy:       25,
		RecentSubmissions:  6,
	}, stats)
}
