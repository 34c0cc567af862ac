package userhandlers

import (
	"log/slog"
	"net/http"

	authdomain "github.com/Black-And-White-Club/ctf-platform/app/modules/auth/domain"
	userservice "github.com/Black-And-White-Club/ctf-platform/app/modules/user/application"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/apperr"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/httpx"
	"go.opentelemetry.io/otel/trace"
)

const defaultPerPage = 20

var errUserNotFound = apperr.NotFound("user not found")

// UserHandlers serves the admin user management endpoints.
type UserHandlers struct {
	service userservice.Service
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewUserHandlers creates a new UserHandlers.
func NewUserHandlers(service userservice.Service, logger *slog.Logger, tracer trace.Tracer) *UserHandlers {
	return &UserHandlers{
		service: service,
		logger:  logger,
		tracer:  tracer,
	}
}

// HandleList handles GET /api/admin/users.
func (h *UserHandlers) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "UserHandlers.HandleList")
	defer span.End()

	page, err := h.service.ListUsers(ctx, httpx.ParsePage(r, defaultPerPage))
	if err != nil {
		httpx.Error(ctx, w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

// HandleUpdate handles PUT /api/admin/users/{id}.
func (h *UserHandlers) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "UserHandlers.HandleUpdate")
	defer span.End()

	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.Error(ctx, w, h.logger, errUserNotFound)
		return
	}

	var req userservice.UpdateUserRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(ctx, w, h.logger, err)
		return
	}

	user, err := h.service.UpdateUser(ctx, id, req)
	if err != nil {
		httpx.Error(ctx, w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"message": "User updated successfully!",
		"user":    user,
	})
}

// HandleDelete handles DELETE /api/admin/users/{id}.
func (h *UserHandlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "UserHandlers.HandleDelete")
	defer span.End()

	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.Error(ctx, w, h.logger, errUserNotFound)
		return
	}

	caller, _ := authdomain.IdentityFromContext(ctx)
	if err := h.service.DeleteUser(ctx, caller.UserID, id); err != nil {
		httpx.Error(ctx, w, h.logger, err)
		return
	}
	httpx.Message(w, http.StatusOK, "User deleted successfully!")
}
