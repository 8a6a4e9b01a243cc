package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/anchor-labs/anchor/internal/middleware"
	"github.com/anchor-labs/anchor/internal/models"
)

// ItemService defines the operations the item handlers require.
type ItemService interface {
	List(ctx context.Context, userID string, groupID *string, offset, limit int) ([]models.Item, error)
	FindByNormalizedURL(ctx context.Context, userID, normalized string) (*models.Item, error)
	Insert(ctx context.Context, userID string, it models.Item) (models.Item, error)
	Update(ctx context.Context, userID, id string, patch models.ItemPatch) (*models.Item, error)
	Delete(ctx context.Context, userID, id string) error
	ItemLabels(ctx context.Context, userID string, itemIDs []string) ([]models.ItemLabel, error)
	EnsureLabel(ctx context.Context, userID, name string) (models.Label, error)
	SetItemLabels(ctx context.Context, itemID string, labelIDs []string) error
}

// ItemHandler serves the item, label, and join-row endpoints.
type ItemHandler struct {
	Items ItemService
}

// List handles GET /api/items. With a normalized_url parameter it performs
// the duplicate-check lookup; otherwise it returns one filtered, ordered,
// range-limited page. Both shapes respond with a JSON array.
func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserIDFromContext(ctx)
	q := r.URL.Query()

	if normalized := q.Get("normalized_url"); normalized != "" {
		it, err := h.Items.FindByNormalizedURL(ctx, userID, normalized)
		if err != nil {
			if models.KindOf(err) == models.KindNotFound || err == models.ErrNotFound {
				writeJSON(w, http.StatusOK, []models.Item{})
				return
			}
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, []models.Item{*it})
		return
	}

	offset, _ := strconv.Atoi(q.Get("offset"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	var groupID *string
	if g := q.Get("group_id"); g != "" {
		groupID = &g
	}

	items, err := h.Items.List(ctx, userID, groupID, offset, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// Create handles POST /api/items.
func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserIDFromContext(ctx)

	var it models.Item
	if err := json.NewDecoder(r.Body).Decode(&it); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	stored, err := h.Items.Insert(ctx, userID, it)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, stored)
}

// Update handles PATCH /api/items/{id}.
func (h *ItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserIDFromContext(ctx)
	id := chi.URLParam(r, "id")

	var patch models.ItemPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	stored, err := h.Items.Update(ctx, userID, id, patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

// Delete handles DELETE /api/items/{id}.
func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserIDFromContext(ctx)
	id := chi.URLParam(r, "id")

	if err := h.Items.Delete(ctx, userID, id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ItemLabels handles GET /api/item-labels?item_ids=a,b,c — the single child
// query of the client's batched join.
func (h *ItemHandler) ItemLabels(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserIDFromContext(ctx)

	var ids []string
	if raw := r.URL.Query().Get("item_ids"); raw != "" {
		ids = strings.Split(raw, ",")
	}
	rows, err := h.Items.ItemLabels(ctx, userID, ids)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// EnsureLabel handles POST /api/labels/ensure, creating the label on first use.
func (h *ItemHandler) EnsureLabel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserIDFromContext(ctx)

	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.Name) == "" {
		http.Error(w, "label name required", http.StatusBadRequest)
		return
	}
	label, err := h.Items.EnsureLabel(ctx, userID, strings.TrimSpace(body.Name))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, label)
}

// SetLabels handles PUT /api/items/{id}/labels.
func (h *ItemHandler) SetLabels(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body struct {
		LabelIDs []string `json:"label_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if err := h.Items.SetItemLabels(r.Context(), id, body.LabelIDs); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
