package challengehandlers

import (
	"net/http"

	"github.com/Black-And-White-Club/ctf-platform/app/shared/httpx"
)

type generateFlagRequest struct {
	Prefix string `json:"prefix"`
	Length int    `json:"length"`
}

type validateFlagRequest struct {
	Flag   string `json:"flag"`
	Prefix string `json:"prefix"`
}

// HandleGenerateFlag handles POST /api/admin/flags/generate. An empty body
// generates a flag with the configured prefix and default length.
func (h *ChallengeHandlers) HandleGenerateFlag(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ChallengeHandlers.HandleGenerateFlag")
	defer span.End()

	var req generateFlagRequest
	if r.ContentLength != 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Error(ctx, w, h.logger, err)
			return
		}
	}

	flag, err := h.service.GenerateFlag(req.Prefix, req.Length)
	if err != nil {
		httpx.Error(ctx, w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"flag": flag})
}

// HandleValidateFlag handles POST /api/admin/flags/validate.
func (h *ChallengeHandlers) HandleValidateFlag(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ChallengeHandlers.HandleValidateFlag")
	defer span.End()

	var req validateFlagRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(ctx, w, h.logger, err)
		return
	}

	httpx.JSON(w, http.StatusOK, h.service.ValidateFlag(req.Flag, req.Prefix))
}
