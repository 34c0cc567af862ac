package adminhandlers

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	adminservice "github.com/Black-And-White-Club/ctf-platform/app/modules/admin/application"
	adminexport "github.com/Black-And-White-Club/ctf-platform/app/modules/admin/infrastructure/export"
	scoreservice "github.com/Black-And-White-Club/ctf-platform/app/modules/score/application"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/apperr"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/httpx"
	"go.opentelemetry.io/otel/trace"
)

var errUnknownFormat = apperr.Validation("format must be json or xlsx")

// AdminHandlers serves the /api/admin reporting and maintenance endpoints.
type AdminHandlers struct {
	service adminservice.Service
	scores  scoreservice.Service
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewAdminHandlers creates a new AdminHandlers.
func NewAdminHandlers(
	service adminservice.Service,
	scores scoreservice.Service,
	logger *slog.Logger,
	tracer trace.Tracer,
) *AdminHandlers {
	return &AdminHandlers{
		service: service,
		scores:  scores,
		logger:  logger,
		tracer:  tracer,
	}
}

// HandleStats handles GET /api/admin/stats.
func (h *AdminHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "AdminHandlers.HandleStats")
	defer span.End()

	stats, err := h.service.Stats(ctx)
	if err != nil {
		httpx.Error(ctx, w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"stats": stats})
}

// HandleBackup handles POST /api/admin/backup.
func (h *AdminHandlers) HandleBackup(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "AdminHandlers.HandleBackup")
	defer span.End()

	snapshot, err := h.service.Backup(ctx)
	if err != nil {
		httpx.Error(ctx, w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"message": "Backup created successfully!",
		"backup":  snapshot,
	})
}

// HandleUpdateScores handles POST /api/admin/update-scores.
func (h *AdminHandlers) HandleUpdateScores(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "AdminHandlers.HandleUpdateScores")
	defer span.End()

	summary, err := h.scores.UpdateAllChallengeScores(ctx)
	if err != nil {
		httpx.Error(ctx, w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"message": "Scores updated successfully!",
		"summary": summary,
	})
}

// HandleRecalculateUsers handles POST /api/admin/recalculate-users.
func (h *AdminHandlers) HandleRecalculateUsers(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "AdminHandlers.HandleRecalculateUsers")
	defer span.End()

	summary, err := h.scores.RecalculateUserScores(ctx)
	if err != nil {
		httpx.Error(ctx, w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"message": "User scores recalculated successfully!",
		"summary": summary,
	})
}

// HandleExport handles GET /api/admin/export-data?format=json|xlsx.
func (h *AdminHandlers) HandleExport(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "AdminHandlers.HandleExport")
	defer span.End()

	format := strings.ToLower(r.URL.Query().Get("format"))
	if format != "" && format != "json" && format != "xlsx" {
		httpx.Error(ctx, w, h.logger, errUnknownFormat)
		return
	}

	data, err := h.service.Export(ctx)
	if err != nil {
		httpx.Error(ctx, w, h.logger, err)
		return
	}

	if format != "xlsx" {
		httpx.JSON(w, http.StatusOK, data)
		return
	}

	// Render fully before writing headers so a failure can still be a 500.
	var buf bytes.Buffer
	if err := adminexport.WriteXLSX(&buf, data); err != nil {
		httpx.Error(ctx, w, h.logger, err)
		return
	}
	filename := fmt.Sprintf("ctf-export-%s.xlsx", data.ExportTime.Format("20060102-150405"))
	w.Header().Set("Content-Type", adminexport.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
