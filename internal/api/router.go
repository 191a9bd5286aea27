package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// SSE endpoint (protected by same auth middleware). Registered before
	// the parameter routes; chi prefers the static segment anyway.
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	r.Post("/", h.SetItem)
	r.Get("/{authKey}", h.ListItems)
	r.Delete("/{authKey}", h.DeleteAll)
	r.Get("/{authKey}/{dataKey}", h.GetItem)
	r.Delete("/{authKey}/{dataKey}", h.DeleteItem)

	return r
}
