package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/anchor-labs/anchor/internal/middleware"
	"github.com/anchor-labs/anchor/internal/models"
)

// GroupService defines the operations the group handlers require.
type GroupService interface {
	List(ctx context.Context, userID string) ([]models.Group, error)
	Create(ctx context.Context, userID string, in models.GroupInput) (models.Group, error)
	Rename(ctx context.Context, userID, id string, in models.GroupInput) (*models.Group, error)
	Delete(ctx context.Context, userID, id string) error
}

// GroupHandler serves the group endpoints.
type GroupHandler struct {
	Groups GroupService
}

// List handles GET /api/groups. The two default groups are provisioned on a
// user's first request.
func (h *GroupHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserIDFromContext(ctx)

	groups, err := h.Groups.List(ctx, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

// Create handles POST /api/groups.
func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserIDFromContext(ctx)

	var in models.GroupInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	g, err := h.Groups.Create(ctx, userID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

// Rename handles PATCH /api/groups/{id}.
func (h *GroupHandler) Rename(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserIDFromContext(ctx)
	id := chi.URLParam(r, "id")

	var in models.GroupInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	g, err := h.Groups.Rename(ctx, userID, id, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// Delete handles DELETE /api/groups/{id}. Default groups respond 409.
func (h *GroupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserIDFromContext(ctx)
	id := chi.URLParam(r, "id")

	if err := h.Groups.Delete(ctx, userID, id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
