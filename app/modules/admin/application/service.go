package adminservice

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	challengedb "github.com/Black-And-White-Club/ctf-platform/app/modules/challenge/infrastructure/repositories"
	submissiondb "github.com/Black-And-White-Club/ctf-platform/app/modules/submission/infrastructure/repositories"
	userdb "github.com/Black-And-White-Club/ctf-platform/app/modules/user/infrastructure/repositories"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/attr"
	"go.opentelemetry.io/otel/trace"
)

const (
	recentWindow = 7 * 24 * time.Hour
	growthWindow = 30 * 24 * time.Hour

	// ExportSubmissionLimit bounds the submissions included in an export.
	ExportSubmissionLimit = 1000
)

// Service is the administrative reporting surface.
type Service interface {
	Stats(ctx context.Context) (*Stats, error)
	Backup(ctx context.Context) (*BackupSnapshot, error)
	Export(ctx context.Context) (*Export, error)
}

// AdminService implements Service over the other modules' repositories.
type AdminService struct {
	users       userdb.Repository
	challenges  challengedb.Repository
	submissions submissiondb.Repository
	logger      *slog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

var _ Service = (*AdminService)(nil)

// NewAdminService creates a new AdminService.
func NewAdminService(
	users userdb.Repository,
	challenges challengedb.Repository,
	submissions submissiondb.Repository,
	logger *slog.Logger,
	tracer trace.Tracer,
) *AdminService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminService{
		users:       users,
		challenges:  challenges,
		submissions: submissions,
		logger:      logger,
		tracer:      tracer,
		now:         time.Now,
	}
}

// Stats is the admin dashboard summary.
type Stats struct {
	TotalUsers             int                           `json:"total_users"`
	TotalChallenges        int                           `json:"total_challenges"`
	TotalSubmissions       int                           `json:"total_submissions"`
	RecentUsers            int                           `json:"recent_users"`
	RecentSubmissions      int                           `json:"recent_submissions"`
	UserGrowth             int                           `json:"user_growth"`
	DailySignups           []userdb.DailyCount           `json:"daily_signups"`
	ChallengesByDifficulty []challengedb.DifficultyCount `json:"challenges_by_difficulty"`
}

// Stats gathers totals, the last week's activity and the last month's signups.
func (s *AdminService) Stats(ctx context.Context) (*Stats, error) {
	ctx, span := s.tracer.Start(ctx, "AdminService.Stats")
	defer span.End()

	now := s.now().UTC()
	weekAgo := now.Add(-recentWindow)
	monthAgo := now.Add(-growthWindow)

	var (
		stats Stats
		err   error
	)
	if stats.TotalUsers, err = s.users.Count(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	if stats.TotalChallenges, err = s.challenges.Count(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to count challenges: %w", err)
	}
	all, err := s.submissions.Counts(ctx, nil, submissiondb.ListFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to count submissions: %w", err)
	}
	stats.TotalSubmissions = all.Total

	if stats.RecentUsers, err = s.users.CountSince(ctx, nil, weekAgo); err != nil {
		return nil, fmt.Errorf("failed to count recent users: %w", err)
	}
	recent, err := s.submissions.Counts(ctx, nil, submissiondb.ListFilter{Since: weekAgo})
	if err != nil {
		return nil, fmt.Errorf("failed to count recent submissions: %w", err)
	}
	stats.RecentSubmissions = recent.Total

	if stats.UserGrowth, err = s.users.CountSince(ctx, nil, monthAgo); err != nil {
		return nil, fmt.Errorf("failed to count user growth: %w", err)
	}
	if stats.DailySignups, err = s.users.DailySignups(ctx, nil, monthAgo); err != nil {
		return nil, fmt.Errorf("failed to load daily signups: %w", err)
	}
	if stats.ChallengesByDifficulty, err = s.challenges.CountByDifficulty(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to count challenges by difficulty: %w", err)
	}

	if stats.DailySignups == nil {
		stats.DailySignups = []userdb.DailyCount{}
	}
	if stats.ChallengesByDifficulty == nil {
		stats.ChallengesByDifficulty = []challengedb.DifficultyCount{}
	}
	return &stats, nil
}

// BackupSnapshot records the table sizes at a point in time.
type BackupSnapshot struct {
	Timestamp        time.Time `json:"timestamp"`
	UsersCount       int       `json:"users_count"`
	ChallengesCount  int       `json:"challenges_count"`
	SubmissionsCount int       `json:"submissions_count"`
}

// Backup takes a counts snapshot. Database dumps are left to the operator's
// Postgres tooling.
func (s *AdminService) Backup(ctx context.Context) (*BackupSnapshot, error) {
	ctx, span := s.tracer.Start(ctx, "AdminService.Backup")
	defer span.End()

	users, err := s.users.Count(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	challenges, err := s.challenges.Count(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to count challenges: %w", err)
	}
	submissions, err := s.submissions.Counts(ctx, nil, submissiondb.ListFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to count submissions: %w", err)
	}

	snapshot := &BackupSnapshot{
		Timestamp:        s.now().UTC(),
		UsersCount:       users,
		ChallengesCount:  challenges,
		SubmissionsCount: submissions.Total,
	}
	s.logger.InfoContext(ctx, "Backup snapshot taken",
		attr.Int("users", users),
		attr.Int("challenges", challenges),
		attr.Int("submissions", submissions.Total),
	)
	return snapshot, nil
}
