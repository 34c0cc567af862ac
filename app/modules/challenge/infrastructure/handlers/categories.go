package challengehandlers

import (
	"net/http"

	challengeservice "github.com/Black-And-White-Club/ctf-platform/app/modules/challenge/application"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/httpx"
)

// HandleListCategories handles GET /api/categories.
func (h *ChallengeHandlers) HandleListCategories(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ChallengeHandlers.HandleListCategories")
	defer span.End()

	categories, err := h.service.ListCategories(ctx)
	if err != nil {
		httpx.Error(ctx, w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"categories": categories})
}

// HandleCreateCategory handles POST /api/admin/categories.
func (h *ChallengeHandlers) HandleCreateCategory(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ChallengeHandlers.HandleCreateCategory")
	defer span.End()

	var req challengeservice.CategoryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(ctx, w, h.logger, err)
		return
	}

	category, err := h.service.CreateCategory(ctx, req)
	if err != nil {
		httpx.Error(ctx, w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"message":     "Category created successfully!",
		"category_id": category.ID,
	})
}

// HandleUpdateCategory handles PUT /api/admin/categories/{id}.
func (h *ChallengeHandlers) HandleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ChallengeHandlers.HandleUpdateCategory")
	defer span.End()

	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.Error(ctx, w, h.logger, challengeservice.ErrCategoryNotFound)
		return
	}

	var req challengeservice.CategoryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(ctx, w, h.logger, err)
		return
	}

	if err := h.service.UpdateCategory(ctx, id, req); err != nil {
		httpx.Error(ctx, w, h.logger, err)
		return
	}
	httpx.Message(w, http.StatusOK, "Category updated successfully!")
}

// HandleDeleteCategory handles DELETE /api/admin/categories/{id}.
func (h *ChallengeHandlers) HandleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ChallengeHandlers.HandleDeleteCategory")
	defer span.End()

	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.Error(ctx, w, h.logger, challengeservice.ErrCategoryNotFound)
		return
	}

	if err := h.service.DeleteCategory(ctx, id); err != nil {
		httpx.Error(ctx, w, h.logger, err)
		return
	}
	httpx.Message(w, http.StatusOK, "Category deleted successfully!")
}
