package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/bignote/internal/noteservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *noteservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Structure.
	r.Get("/taxonomy", h.Taxonomy)
	r.Get("/clusters", h.ListClusters)
	r.Get("/classify/*", h.Classify)
	r.Get("/resolve/*", h.Resolve)

	// Spawning.
	r.Post("/spawn", h.Spawn)

	r.Get("/diagnostics/duplicates", h.Duplicates)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
