package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/anchor-labs/anchor/internal/middleware"
)

// NewRouter constructs the emulator's HTTP handler.
//
// Routes (all require the X-User-ID identity header):
//
//	GET    /api/items              → ItemHandler.List
//	POST   /api/items              → ItemHandler.Create
//	PATCH  /api/items/{id}         → ItemHandler.Update
//	DELETE /api/items/{id}         → ItemHandler.Delete
//	PUT    /api/items/{id}/labels  → ItemHandler.SetLabels
//	GET    /api/item-labels        → ItemHandler.ItemLabels
//	POST   /api/labels/ensure      → ItemHandler.EnsureLabel
//	GET    /api/groups             → GroupHandler.List
//	POST   /api/groups             → GroupHandler.Create
//	PATCH  /api/groups/{id}        → GroupHandler.Rename
//	DELETE /api/groups/{id}        → GroupHandler.Delete
func NewRouter(
	itemHandler *ItemHandler,
	groupHandler *GroupHandler,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Only allow requests with Content-Type: application/json
	r.Use(chiMiddleware.AllowContentType("application/json"))

	// Log each request and its metadata
	r.Use(middleware.WithRequestLogging(logger))
	// Resolve the caller's identity; every query below is scoped by it
	r.Use(middleware.UserIdentity)

	r.Route("/api", func(r chi.Router) {
		r.Route("/items", func(r chi.Router) {
			r.Get("/", itemHandler.List)
			r.Post("/", itemHandler.Create)
			r.Patch("/{id}", itemHandler.Update)
			r.Delete("/{id}", itemHandler.Delete)
			r.Put("/{id}/labels", itemHandler.SetLabels)
		})
		r.Get("/item-labels", itemHandler.ItemLabels)
		r.Post("/labels/ensure", itemHandler.EnsureLabel)

		r.Route("/groups", func(r chi.Router) {
			r.Get("/", groupHandler.List)
			r.Post("/", groupHandler.Create)
			r.Patch("/{id}", groupHandler.Rename)
			r.Delete("/{id}", groupHandler.Delete)
		})
	})

	return r
}
