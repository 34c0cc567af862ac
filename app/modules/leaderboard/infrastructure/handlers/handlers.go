package leaderboardhandlers

import (
	"log/slog"
	"net/http"
	"strconv"

	authdomain "github.com/Black-And-White-Club/ctf-platform/app/modules/auth/domain"
	leaderboardservice "github.com/Black-And-White-Club/ctf-platform/app/modules/leaderboard/application"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/httpx"
	"go.opentelemetry.io/otel/trace"
)

// LeaderboardHandlers serves the read-only leaderboard endpoints.
type LeaderboardHandlers struct {
	service leaderboardservice.Service
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewLeaderboardHandlers creates a new LeaderboardHandlers.
func NewLeaderboardHandlers(service leaderboardservice.Service, logger *slog.Logger, tracer trace.Tracer) *LeaderboardHandlers {
	return &LeaderboardHandlers{
		service: service,
		logger:  logger,
		tracer:  tracer,
	}
}

// HandleGlobal handles GET /api/leaderboard.
func (h *LeaderboardHandlers) HandleGlobal(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "LeaderboardHandlers.HandleGlobal")
	defer span.End()

	board, err := h.service.Global(ctx, httpx.ParsePage(r, leaderboardservice.DefaultPerPage))
	if err != nil {
		httpx.Error(ctx, w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, board)
}

// HandleCategory handles GET /api/leaderboard/category/{id}.
func (h *LeaderboardHandlers) HandleCategory(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "LeaderboardHandlers.HandleCategory")
	defer span.End()

	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.Error(ctx, w, h.logger, leaderboardservice.ErrCategoryNotFound)
		return
	}

	board, err := h.service.ByCategory(ctx, id)
	if err != nil {
		httpx.Error(ctx, w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, board)
}

// HandleChallenge handles GET /api/leaderboard/challenge/{id}.
func (h *LeaderboardHandlers) HandleChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "LeaderboardHandlers.HandleChallenge")
	defer span.End()

	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.Error(ctx, w, h.logger, leaderboardservice.ErrChallengeNotFound)
		return
	}

	caller, _ := authdomain.IdentityFromContext(ctx)
	board, err := h.service.ByChallenge(ctx, caller, id)
	if err != nil {
		httpx.Error(ctx, w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, board)
}

// HandleChart handles GET /api/leaderboard/chart.png.
func (h *LeaderboardHandlers) HandleChart(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "LeaderboardHandlers.HandleChart")
	defer span.End()

	top, err := strconv.Atoi(r.URL.Query().Get("top"))
	if err != nil {
		top = leaderboardservice.DefaultChartTop
	}

	png, err := h.service.TopChart(ctx, top)
	if err != nil {
		httpx.Error(ctx, w, h.logger, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
