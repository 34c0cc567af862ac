package challengehandlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	authdomain "github.com/Black-And-White-Club/ctf-platform/app/modules/auth/domain"
	challengeservice "github.com/Black-And-White-Club/ctf-platform/app/modules/challenge/application"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/httpx"
	"go.opentelemetry.io/otel/trace"
)

// ChallengeHandlers serves the challenge catalogue, categories and admin flag tooling.
type ChallengeHandlers struct {
	service challengeservice.Service
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewChallengeHandlers creates a new ChallengeHandlers.
func NewChallengeHandlers(
	service challengeservice.Service,
	logger *slog.Logger,
	tracer trace.Tracer,
) *ChallengeHandlers {
	return &ChallengeHandlers{
		service: service,
		logger:  logger,
		tracer:  tracer,
	}
}

// HandleList handles GET /api/challenges.
func (h *ChallengeHandlers) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ChallengeHandlers.HandleList")
	defer span.End()

	caller, _ := authdomain.IdentityFromContext(ctx)
	views, err := h.service.ListChallenges(ctx, caller)
	if err != nil {
		httpx.Error(ctx, w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"challenges": views})
}

// HandleGet handles GET /api/challenges/{id}.
func (h *ChallengeHandlers) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ChallengeHandlers.HandleGet")
	defer span.End()

	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.Error(ctx, w, h.logger, challengeservice.ErrChallengeNotFound)
		return
	}

	caller, _ := authdomain.IdentityFromContext(ctx)
	view, err := h.service.GetChallenge(ctx, caller, id)
	if err != nil {
		httpx.Error(ctx, w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"challenge": view})
}

// HandleCreate handles POST /api/challenges.
func (h *ChallengeHandlers) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ChallengeHandlers.HandleCreate")
	defer span.End()

	var req challengeservice.CreateChallengeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(ctx, w, h.logger, err)
		return
	}

	caller, _ := authdomain.IdentityFromContext(ctx)
	created, err := h.service.CreateChallenge(ctx, caller, req)
	if err != nil {
		httpx.Error(ctx, w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"message":      "Challenge created successfully!",
		"challenge_id": created.ChallengeID,
		"challenge":    created.Challenge,
	})
}

// HandleUpdate handles PUT /api/challenges/{id}.
func (h *ChallengeHandlers) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ChallengeHandlers.HandleUpdate")
	defer span.End()

	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.Error(ctx, w, h.logger, challengeservice.ErrChallengeNotFound)
		return
	}

	var req challengeservice.UpdateChallengeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(ctx, w, h.logger, err)
		return
	}

	if err := h.service.UpdateChallenge(ctx, id, req); err != nil {
		httpx.Error(ctx, w, h.logger, err)
		return
	}
	httpx.Message(w, http.StatusOK, "Challenge updated successfully!")
}

// HandleDelete handles DELETE /api/challenges/{id}.
func (h *ChallengeHandlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ChallengeHandlers.HandleDelete")
	defer span.End()

	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.Error(ctx, w, h.logger, challengeservice.ErrChallengeNotFound)
		return
	}

	if err := h.service.DeleteChallenge(ctx, id); err != nil {
		httpx.Error(ctx, w, h.logger, err)
		return
	}
	httpx.Message(w, http.StatusOK, "Challenge deleted successfully!")
}

// HandleDownload handles GET /api/challenges/{id}/download.
func (h *ChallengeHandlers) HandleDownload(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ChallengeHandlers.HandleDownload")
	defer span.End()

	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.Error(ctx, w, h.logger, challengeservice.ErrChallengeNotFound)
		return
	}

	caller, _ := authdomain.IdentityFromContext(ctx)
	file, err := h.service.Attachment(ctx, caller, id)
	if err != nil {
		httpx.Error(ctx, w, h.logger, err)
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q; filename*=UTF-8''%s",
		file.Filename, url.PathEscape(file.Filename)))
	http.ServeFile(w, r.WithContext(ctx), file.Path)
}
