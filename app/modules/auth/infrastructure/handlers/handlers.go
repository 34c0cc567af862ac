package authhandlers

import (
	"log/slog"
	"net/http"

	authservice "github.com/Black-And-White-Club/ctf-platform/app/modules/auth/application"
	authdomain "github.com/Black-And-White-Club/ctf-platform/app/modules/auth/domain"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/httpx"
	"go.opentelemetry.io/otel/trace"
)

// AuthHandlers serves the /api/auth endpoints and owns the auth middleware.
type AuthHandlers struct {
	service authservice.Service
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewAuthHandlers creates a new AuthHandlers instance.
func NewAuthHandlers(
	service authservice.Service,
	logger *slog.Logger,
	tracer trace.Tracer,
) *AuthHandlers {
	return &AuthHandlers{
		service: service,
		logger:  logger,
		tracer:  tracer,
	}
}

// HandleRegister handles POST /api/auth/register.
func (h *AuthHandlers) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "AuthHandlers.HandleRegister")
	defer span.End()

	var req authservice.RegisterRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(ctx, w, h.logger, err)
		return
	}

	id, err := h.service.Register(ctx, req)
	if err != nil {
		httpx.Error(ctx, w, h.logger, err)
		return
	}

	httpx.JSON(w, http.StatusCreated, map[string]any{
		"message": "User registered successfully!",
		"user_id": id,
	})
}

// HandleLogin handles POST /api/auth/login.
func (h *AuthHandlers) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "AuthHandlers.HandleLogin")
	defer span.End()

	var req authservice.LoginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(ctx, w, h.logger, err)
		return
	}

	resp, err := h.service.Login(ctx, req)
	if err != nil {
		httpx.Error(ctx, w, h.logger, err)
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"message":    "Login successful!",
		"token":      resp.Token,
		"expires_at": resp.ExpiresAt,
		"user":       resp.User,
	})
}

// HandleGetProfile handles GET /api/auth/profile.
func (h *AuthHandlers) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, _ := authdomain.IdentityFromContext(ctx)

	profile, err := h.service.Profile(ctx, id.UserID)
	if err != nil {
		httpx.Error(ctx, w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"user": profile})
}

// HandleUpdateProfile handles PUT /api/auth/profile.
func (h *AuthHandlers) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, _ := authdomain.IdentityFromContext(ctx)

	var req authservice.UpdateProfileRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(ctx, w, h.logger, err)
		return
	}

	if err := h.service.UpdateProfile(ctx, id.UserID, req); err != nil {
		httpx.Error(ctx, w, h.logger, err)
		return
	}
	httpx.Message(w, http.StatusOK, "Profile updated successfully!")
}
