package submissionservice

import (
	"context"
	"time"

	authdomain "github.com/Black-And-White-Club/ctf-platform/app/modules/auth/domain"
	submissiondb "github.com/Black-And-White-Club/ctf-platform/app/modules/submission/infrastructure/repositories"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/apperr"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/httpx"
)

// ErrAccessDenied is returned when a player asks for someone else's submissions.
var ErrAccessDenied = apperr.Forbidden("Access denied!")

// recentWindow is the span the "recent" statistics cover.
const recentWindow = 7 * 24 * time.Hour

// ListQuery selects a page of submissions. Zero IDs mean no filter; Since is
// free text parsed by the natural language time parser.
type ListQuery struct {
	Page        httpx.PageRequest
	UserID      int64
	ChallengeID int64
	Since       string
}

// SubmissionView is a submission as the caller may see it. FlagSubmitted is
// only set for admins and the submission's owner.
type SubmissionView struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"user_id"`
	Username       string    `json:"username,omitempty"`
	ChallengeID    int64     `json:"challenge_id"`
	ChallengeTitle string    `json:"challenge_title,omitempty"`
	IsCorrect      bool      `json:"is_correct"`
	SubmittedAt    time.Time `json:"submitted_at"`
	FlagSubmitted  *string   `json:"flag_submitted,omitempty"`
}

// SubmissionPage is one page of a submission listing.
type SubmissionPage struct {
	Submissions []SubmissionView `json:"submissions"`
	Total       int              `json:"total"`
	Pages       int              `json:"pages"`
	CurrentPage int              `json:"current_page"`
}

// Stats summarizes submission volume and accuracy.
type Stats struct {
	TotalSubmissions   int     `json:"total_submissions"`
	CorrectSubmissions int     `json:"correct_submissions"`
	AccuracyRate       float64 `json:"accuracy_rate"`
	UserTotal          int     `json:"user_total"`
	UserCorrect        int     `json:"user_correct"`
	UserAccuracy       float64 `json:"user_accuracy"`
	RecentSubmissions  int     `json:"recent_submissions"`
}

// ListSubmissions returns the newest submissions first. Players always see
// only their own and may not filter by user.
func (s *SubmissionService) ListSubmissions(ctx context.Context, caller authdomain.Identity, q ListQuery) (*SubmissionPage, error) {
	filter := submissiondb.ListFilter{ChallengeID: q.ChallengeID}
	switch {
	case caller.IsAdmin:
		filter.UserID = q.UserID
	case q.UserID != 0:
		return nil, ErrAccessDenied
	default:
		filter.UserID = caller.UserID
	}

	since, err := s.since.Since(q.Since, s.now())
	if err != nil {
		return nil, err
	}
	filter.Since = since

	return s.page(ctx, caller, filter, q.Page)
}

// ListUserSubmissions lists one user's submissions. Players may only list their own.
func (s *SubmissionService) ListUserSubmissions(ctx context.Context, caller authdomain.Identity, userID int64, page httpx.PageRequest) (*SubmissionPage, error) {
	if !caller.CanSee(userID) {
		return nil, ErrAccessDenied
	}
	return s.page(ctx, caller, submissiondb.ListFilter{UserID: userID}, page)
}

// ListChallengeSubmissions lists submissions on one challenge. Players only
// see their own.
func (s *SubmissionService) ListChallengeSubmissions(ctx context.Context, caller authdomain.Identity, challengeID int64, page httpx.PageRequest) (*SubmissionPage, error) {
	filter := submissiondb.ListFilter{ChallengeID: challengeID}
	if !caller.IsAdmin {
		filter.UserID = caller.UserID
	}
	return s.page(ctx, caller, filter, page)
}

// GetStats returns platform wide and caller specific submission statistics.
func (s *SubmissionService) GetStats(ctx context.Context, caller authdomain.Identity) (*Stats, error) {
	all, err := s.submissions.Counts(ctx, nil, submissiondb.ListFilter{})
	if err != nil {
		return nil, err
	}
	mine, err := s.submissions.Counts(ctx, nil, submissiondb.ListFilter{UserID: caller.UserID})
	if err != nil {
		return nil, err
	}
	recent, err := s.submissions.Counts(ctx, nil, submissiondb.ListFilter{Since: s.now().Add(-recentWindow)})
	if err != nil {
		return nil, err
	}

	return &Stats{
		TotalSubmissions:   all.Total,
		CorrectSubmissions: all.Correct,
		AccuracyRate:       percentage(all.Correct, all.Total),
		UserTotal:          mine.Total,
		UserCorrect:        mine.Correct,
		UserAccuracy:       percentage(mine.Correct, mine.Total),
		RecentSubmissions:  recent.Total,
	}, nil
}

func (s *SubmissionService) page(ctx context.Context, caller authdomain.Identity, filter submissiondb.ListFilter, page httpx.PageRequest) (*SubmissionPage, error) {
	rows, total, err := s.submissions.List(ctx, nil, filter, page.Offset(), page.PerPage)
	if err != nil {
		return nil, err
	}

	views := make([]SubmissionView, 0, len(rows))
	for i := range rows {
		row := &rows[i]
		view := SubmissionView{
			ID:             row.ID,
			UserID:         row.UserID,
			Username:       row.Username,
			ChallengeID:    row.ChallengeID,
			ChallengeTitle: row.ChallengeTitle,
			IsCorrect:      row.IsCorrect,
			SubmittedAt:    row.SubmittedAt,
		}
		if caller.CanSee(row.UserID) {
			flag := row.FlagSubmitted
			view.FlagSubmitted = &flag
		}
		views = append(views, view)
	}

	return &SubmissionPage{
		Submissions: views,
		Total:       total,
		Pages:       page.Pages(total),
		CurrentPage: page.Page,
	}, nil
}

func percentage(part, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}
