package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/starford/laguz/internal/outline"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
func NewRouter(svc *outline.Service, authEnabled bool, token string) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Snapshot reads.
	r.Get("/outline", h.Outline)
	r.Get("/search", h.Search)
	r.Get("/nodes", h.ListNodes)
	r.Get("/nodes/{id}", h.GetNode)

	// Mutations.
	r.Post("/nodes", h.CreateNode)
	r.Patch("/nodes/{id}", h.UpdateNode)
	r.Delete("/nodes/{id}", h.DeleteNode)
	r.Post("/nodes/{id}/move", h.MoveNode)
	r.Post("/nodes/{id}/complete", h.CompleteNode)
	r.Post("/nodes/{id}/uncomplete", h.UncompleteNode)

	// Targets pass-through.
	r.Get("/targets", h.ListTargets)

	return r
}
