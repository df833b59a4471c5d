package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/murmur/internal/backend"
	"github.com/starford/murmur/internal/index"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// idx may be nil, in which case GET /notes is not mounted.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(bridge backend.Bridge, idx index.NoteIndex, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(bridge, idx)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Bridge commands.
	r.Post("/invoke/{command}", h.Invoke)

	// Indexed listing.
	if idx != nil {
		r.Get("/notes", h.ListNotes)
	}

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
