// Package http provides the emulator's HTTP handlers for items, labels, and
// groups.
package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/anchor-labs/anchor/internal/models"
	"github.com/anchor-labs/anchor/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain failures onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, service.ErrDefaultGroup):
		http.Error(w, err.Error(), http.StatusConflict)
	case models.KindOf(err) == models.KindValidation:
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
