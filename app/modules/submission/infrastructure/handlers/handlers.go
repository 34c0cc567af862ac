package submissionhandlers

import (
	"log/slog"
	"net/http"
	"strconv"

	authdomain "github.com/Black-And-White-Club/ctf-platform/app/modules/auth/domain"
	submissionservice "github.com/Black-And-White-Club/ctf-platform/app/modules/submission/application"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/apperr"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/httpx"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/ratelimit"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultPerPage      = 20
	defaultAdminPerPage = 50
)

var errTooManySubmissions = apperr.New(apperr.ErrRateLimited, "Too many submissions! Please wait a moment.")

// SubmissionHandlers serves the flag submission and submission listing endpoints.
type SubmissionHandlers struct {
	service submissionservice.Service
	limiter *ratelimit.KeyedLimiter
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewSubmissionHandlers creates a new SubmissionHandlers. A nil limiter
// disables per-user submission throttling.
func NewSubmissionHandlers(
	service submissionservice.Service,
	limiter *ratelimit.KeyedLimiter,
	logger *slog.Logger,
	tracer trace.Tracer,
) *SubmissionHandlers {
	return &SubmissionHandlers{
		service: service,
		limiter: limiter,
		logger:  logger,
		tracer:  tracer,
	}
}

type submitRequest struct {
	Flag string `json:"flag"`
}

// HandleSubmit handles POST /api/challenges/{id}/submit.
func (h *SubmissionHandlers) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SubmissionHandlers.HandleSubmit")
	defer span.End()

	caller, _ := authdomain.IdentityFromContext(ctx)
	if h.limiter != nil && !h.limiter.Allow("user:"+strconv.FormatInt(caller.UserID, 10)) {
		httpx.Error(ctx, w, h.logger, errTooManySubmissions)
		return
	}

	challengeID, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.Error(ctx, w, h.logger, submissionservice.ErrChallengeNotFound)
		return
	}

	var req submitRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(ctx, w, h.logger, submissionservice.ErrFlagRequired)
		return
	}

	verdict, err := h.service.Submit(ctx, caller, challengeID, req.Flag)
	if err != nil {
		httpx.Error(ctx, w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, verdict)
}

// HandleList handles GET /api/submissions.
func (h *SubmissionHandlers) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SubmissionHandlers.HandleList")
	defer span.End()

	h.list(w, r.WithContext(ctx), defaultPerPage)
}

// HandleAdminList handles GET /api/admin/submissions.
func (h *SubmissionHandlers) HandleAdminList(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SubmissionHandlers.HandleAdminList")
	defer span.End()

	h.list(w, r.WithContext(ctx), defaultAdminPerPage)
}

func (h *SubmissionHandlers) list(w http.ResponseWriter, r *http.Request, perPage int) {
	ctx := r.Context()
	caller, _ := authdomain.IdentityFromContext(ctx)

	userID, err := httpx.OptionalIntQuery(r, "user_id")
	if err != nil {
		httpx.Error(ctx, w, h.logger, err)
		return
	}
	challengeID, err := httpx.OptionalIntQuery(r, "challenge_id")
	if err != nil {
		httpx.Error(ctx, w, h.logger, err)
		return
	}

	page, err := h.service.ListSubmissions(ctx, caller, submissionservice.ListQuery{
		Page:        httpx.ParsePage(r, perPage),
		UserID:      userID,
		ChallengeID: challengeID,
		Since:       r.URL.Query().Get("since"),
	})
	if err != nil {
		httpx.Error(ctx, w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

// HandleUserSubmissions handles GET /api/submissions/user/{id}.
func (h *SubmissionHandlers) HandleUserSubmissions(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SubmissionHandlers.HandleUserSubmissions")
	defer span.End()

	caller, _ := authdomain.IdentityFromContext(ctx)
	userID, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.Error(ctx, w, h.logger, err)
		return
	}

	page, err := h.service.ListUserSubmissions(ctx, caller, userID, httpx.ParsePage(r, defaultPerPage))
	if err != nil {
		httpx.Error(ctx, w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

// HandleChallengeSubmissions handles GET /api/submissions/challenge/{id}.
func (h *SubmissionHandlers) HandleChallengeSubmissions(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SubmissionHandlers.HandleChallengeSubmissions")
	defer span.End()

	caller, _ := authdomain.IdentityFromContext(ctx)
	challengeID, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.Error(ctx, w, h.logger, err)
		return
	}

	page, err := h.service.ListChallengeSubmissions(ctx, caller, challengeID, httpx.ParsePage(r, defaultPerPage))
	if err != nil {
		httpx.Error(ctx, w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

// HandleStats handles GET /api/submissions/stats.
func (h *SubmissionHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SubmissionHandlers.HandleStats")
	defer span.End()

	caller, _ := authdomain.IdentityFromContext(ctx)
	stats, err := h.service.GetStats(ctx, caller)
	if err != nil {
		httpx.Error(ctx, w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"stats": stats})
}
