package leaderboardservice

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	authdomain "github.com/Black-And-White-Club/ctf-platform/app/modules/auth/domain"
	leaderboarddb "github.com/Black-And-White-Club/ctf-platform/app/modules/leaderboard/infrastructure/repositories"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/apperr"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/attr"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/httpx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DefaultPerPage is the global board page size when none is requested.
const DefaultPerPage = 50

var (
	ErrCategoryNotFound  = apperr.NotFound("Category not found!")
	ErrChallengeNotFound = apperr.NotFound("Challenge not found!")
)

// PageCache stores encoded global board pages. Implementations must be safe
// for concurrent use.
type PageCache interface {
	GetGlobal(ctx context.Context, page, perPage int) ([]byte, bool, error)
	SetGlobal(ctx context.Context, page, perPage int, data []byte) error
	Invalidate(ctx context.Context) error
}

// Service reads the leaderboards.
type Service interface {
	Global(ctx context.Context, page httpx.PageRequest) (*GlobalBoard, error)
	ByCategory(ctx context.Context, categoryID int64) (*CategoryBoard, error)
	ByChallenge(ctx context.Context, caller authdomain.Identity, challengeID int64) (*ChallengeBoard, error)
	UserRank(ctx context.Context, userID int64) (int, error)
	TopChart(ctx context.Context, top int) ([]byte, error)
	Invalidate(ctx context.Context)
}

// LeaderboardService implements Service.
type LeaderboardService struct {
	repo   leaderboarddb.Repository
	cache  PageCache
	logger *slog.Logger
	tracer trace.Tracer
}

var _ Service = (*LeaderboardService)(nil)

// NewLeaderboardService creates a new LeaderboardService. cache may be nil.
func NewLeaderboardService(repo leaderboarddb.Repository, cache PageCache, logger *slog.Logger, tracer trace.Tracer) *LeaderboardService {
	if logger == nil {
		logger = slog.Default()
	}
	return &LeaderboardService{
		repo:   repo,
		cache:  cache,
		logger: logger,
		tracer: tracer,
	}
}

// GlobalEntry is one row of the global board.
type GlobalEntry struct {
	Rank        int        `json:"rank"`
	UserID      int64      `json:"user_id"`
	Username    string     `json:"username"`
	Score       int        `json:"score"`
	SolvedCount int        `json:"solved_count"`
	LastSolve   *time.Time `json:"last_solve"`
}

// GlobalBoard is one page of the global board.
type GlobalBoard struct {
	Leaderboard []GlobalEntry `json:"leaderboard"`
	Total       int           `json:"total"`
	Pages       int           `json:"pages"`
	CurrentPage int           `json:"current_page"`
}

// CategoryEntry is a user's standing within one category.
type CategoryEntry struct {
	Rank        int    `json:"rank"`
	UserID      int64  `json:"user_id"`
	Username    string `json:"username"`
	Score       int    `json:"score"`
	SolvedCount int    `json:"solved_count"`
}

// CategoryBoard ranks users by the points they scored in a category.
type CategoryBoard struct {
	CategoryID  int64           `json:"category_id"`
	Leaderboard []CategoryEntry `json:"leaderboard"`
}

// SolveEntry is one solver of a challenge, in solve order.
type SolveEntry struct {
	Rank     int       `json:"rank"`
	UserID   int64     `json:"user_id"`
	Username string    `json:"username"`
	SolvedAt time.Time `json:"solved_at"`
}

// ChallengeBoard lists a challenge's solvers.
type ChallengeBoard struct {
	ChallengeID int64        `json:"challenge_id"`
	Leaderboard []SolveEntry `json:"leaderboard"`
}

// Global returns a page of the global board, served from the cache when possible.
func (s *LeaderboardService) Global(ctx context.Context, page httpx.PageRequest) (*GlobalBoard, error) {
	ctx, span := s.tracer.Start(ctx, "LeaderboardService.Global", trace.WithAttributes(
		attribute.Int("page", page.Page),
		attribute.Int("per_page", page.PerPage),
	))
	defer span.End()

	if board, ok := s.cached(ctx, page); ok {
		span.SetAttributes(attribute.Bool("cache_hit", true))
		return board, nil
	}

	rows, total, err := s.repo.Global(ctx, nil, page.Offset(), page.PerPage)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	board := &GlobalBoard{
		Leaderboard: make([]GlobalEntry, 0, len(rows)),
		Total:       total,
		Pages:       page.Pages(total),
		CurrentPage: page.Page,
	}
	for i, row := range rows {
		board.Leaderboard = append(board.Leaderboard, GlobalEntry{
			Rank:        page.Offset() + i + 1,
			UserID:      row.UserID,
			Username:    row.Username,
			Score:       row.Score,
			SolvedCount: row.SolvedCount,
			LastSolve:   row.LastSolve,
		})
	}

	s.store(ctx, page, board)
	return board, nil
}

func (s *LeaderboardService) cached(ctx context.Context, page httpx.PageRequest) (*GlobalBoard, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, ok, err := s.cache.GetGlobal(ctx, page.Page, page.PerPage)
	if err != nil {
		s.logger.WarnContext(ctx, "Leaderboard cache read failed", attr.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var board GlobalBoard
	if err := json.Unmarshal(data, &board); err != nil {
		s.logger.WarnContext(ctx, "Discarding unreadable leaderboard cache entry", attr.Error(err))
		return nil, false
	}
	return &board, true
}

func (s *LeaderboardService) store(ctx context.Context, page httpx.PageRequest, board *GlobalBoard) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(board)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to encode leaderboard page", attr.Error(err))
		return
	}
	if err := s.cache.SetGlobal(ctx, page.Page, page.PerPage, data); err != nil {
		s.logger.WarnContext(ctx, "Leaderboard cache write failed", attr.Error(err))
	}
}

// ByCategory ranks users by the current points of their distinct solves in
// a category.
func (s *LeaderboardService) ByCategory(ctx context.Context, categoryID int64) (*CategoryBoard, error) {
	ctx, span := s.tracer.Start(ctx, "LeaderboardService.ByCategory", trace.WithAttributes(
		attribute.Int64("category_id", categoryID),
	))
	defer span.End()

	exists, err := s.repo.CategoryExists(ctx, nil, categoryID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrCategoryNotFound
	}

	rows, err := s.repo.ByCategory(ctx, nil, categoryID)
	if err != nil {
		return nil, err
	}

	board := &CategoryBoard{CategoryID: categoryID, Leaderboard: make([]CategoryEntry, 0, len(rows))}
	for i, row := range rows {
		board.Leaderboard = append(board.Leaderboard, CategoryEntry{
			Rank:        i + 1,
			UserID:      row.UserID,
			Username:    row.Username,
			Score:       row.Score,
			SolvedCount: row.SolvedCount,
		})
	}
	return board, nil
}

// ByChallenge lists a challenge's solvers, first blood first. Hidden
// challenges are not found for non-admins.
func (s *LeaderboardService) ByChallenge(ctx context.Context, caller authdomain.Identity, challengeID int64) (*ChallengeBoard, error) {
	ctx, span := s.tracer.Start(ctx, "LeaderboardService.ByChallenge", trace.WithAttributes(
		attribute.Int64("challenge_id", challengeID),
	))
	defer span.End()

	exists, err := s.repo.ChallengeExists(ctx, nil, challengeID, caller.IsAdmin)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrChallengeNotFound
	}

	rows, err := s.repo.ByChallenge(ctx, nil, challengeID)
	if err != nil {
		return nil, err
	}

	board := &ChallengeBoard{ChallengeID: challengeID, Leaderboard: make([]SolveEntry, 0, len(rows))}
	for i, row := range rows {
		board.Leaderboard = append(board.Leaderboard, SolveEntry{
			Rank:     i + 1,
			UserID:   row.UserID,
			Username: row.Username,
			SolvedAt: row.SubmittedAt,
		})
	}
	return board, nil
}

// UserRank returns the user's global position, zero when unranked.
func (s *LeaderboardService) UserRank(ctx context.Context, userID int64) (int, error) {
	return s.repo.UserRank(ctx, nil, userID)
}

// Invalidate drops cached global pages. Failures are logged; stale pages
// expire on their own.
func (s *LeaderboardService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.WarnContext(ctx, "Leaderboard cache invalidation failed", attr.Error(err))
	}
}

func pageOf(n int) httpx.PageRequest {
	return httpx.PageRequest{Page: 1, PerPage: n}
}
