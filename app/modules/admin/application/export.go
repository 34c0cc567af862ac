package adminservice

import (
	"context"
	"fmt"
	"time"

	challengedb "github.com/Black-And-White-Club/ctf-platform/app/modules/challenge/infrastructure/repositories"
	submissiondb "github.com/Black-And-White-Club/ctf-platform/app/modules/submission/infrastructure/repositories"
	userdb "github.com/Black-And-White-Club/ctf-platform/app/modules/user/infrastructure/repositories"
)

// Export is a full data dump for administrators. Challenges include their flags.
type Export struct {
	ExportTime  time.Time          `json:"export_time"`
	Users       []ExportUser       `json:"users"`
	Challenges  []ExportChallenge  `json:"challenges"`
	Submissions []ExportSubmission `json:"submissions"`
	Categories  []ExportCategory   `json:"categories"`
}

type ExportUser struct {
	ID        int64      `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	IsAdmin   bool       `json:"is_admin"`
	IsActive  bool       `json:"is_active"`
	Score     int        `json:"score"`
	CreatedAt time.Time  `json:"created_at"`
	LastLogin *time.Time `json:"last_login"`
}

type ExportChallenge struct {
	ID                 int64     `json:"id"`
	Title              string    `json:"title"`
	Description        string    `json:"description"`
	Flag               string    `json:"flag"`
	Points             int       `json:"points"`
	BasePoints         int       `json:"base_points"`
	Difficulty         string    `json:"difficulty"`
	CategoryID         int64     `json:"category_id"`
	SolvedCount        int       `json:"solved_count"`
	FirstBloodUserID   *int64    `json:"first_blood_user_id"`
	IsHidden           bool      `json:"is_hidden"`
	Hints              []string  `json:"hints"`
	AttachmentFilename string    `json:"attachment_filename"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type ExportSubmission struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	ChallengeID   int64     `json:"challenge_id"`
	FlagSubmitted string    `json:"flag_submitted"`
	IsCorrect     bool      `json:"is_correct"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

type ExportCategory struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Export collects every table. Submissions are capped at
// ExportSubmissionLimit, newest first.
func (s *AdminService) Export(ctx context.Context) (*Export, error) {
	ctx, span := s.tracer.Start(ctx, "AdminService.Export")
	defer span.End()

	users, err := s.users.ListAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to export users: %w", err)
	}
	challenges, err := s.challenges.List(ctx, nil, true)
	if err != nil {
		return nil, fmt.Errorf("failed to export challenges: %w", err)
	}
	submissions, _, err := s.submissions.List(ctx, nil, submissiondb.ListFilter{}, 0, ExportSubmissionLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to export submissions: %w", err)
	}
	categories, err := s.challenges.ListCategories(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to export categories: %w", err)
	}

	out := &Export{
		ExportTime:  s.now().UTC(),
		Users:       make([]ExportUser, 0, len(users)),
		Challenges:  make([]ExportChallenge, 0, len(challenges)),
		Submissions: make([]ExportSubmission, 0, len(submissions)),
		Categories:  make([]ExportCategory, 0, len(categories)),
	}
	for _, u := range users {
		out.Users = append(out.Users, exportUser(u))
	}
	for _, c := range challenges {
		out.Challenges = append(out.Challenges, exportChallenge(c))
	}
	for _, sub := range submissions {
		out.Submissions = append(out.Submissions, ExportSubmission{
			ID:            sub.ID,
			UserID:        sub.UserID,
			ChallengeID:   sub.ChallengeID,
			FlagSubmitted: sub.FlagSubmitted,
			IsCorrect:     sub.IsCorrect,
			SubmittedAt:   sub.SubmittedAt,
		})
	}
	for _, c := range categories {
		out.Categories = append(out.Categories, ExportCategory{
			ID:          c.ID,
			Name:        c.Name,
			Description: c.Description,
			CreatedAt:   c.CreatedAt,
		})
	}
	return out, nil
}

func exportUser(u userdb.User) ExportUser {
	return ExportUser{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		IsAdmin:   u.IsAdmin,
		IsActive:  u.IsActive,
		Score:     u.Score,
		CreatedAt: u.CreatedAt,
		LastLogin: u.LastLogin,
	}
}

func exportChallenge(c challengedb.Challenge) ExportChallenge {
	hints := c.Hints
	if hints == nil {
		hints = []string{}
	}
	return ExportChallenge{
		ID:                 c.ID,
		Title:              c.Title,
		Description:        c.Description,
		Flag:               c.Flag,
		Points:             c.Points,
		BasePoints:         c.BasePoints,
		Difficulty:         c.Difficulty,
		CategoryID:         c.CategoryID,
		SolvedCount:        c.SolvedCount,
		FirstBloodUserID:   c.FirstBloodUserID,
		IsHidden:           c.IsHidden,
		Hints:              hints,
		AttachmentFilename: c.AttachmentFilename,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
}
