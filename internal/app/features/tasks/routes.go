// internal/app/features/tasks/routes.go
package tasks

import (
	"github.com/dalemusser/taskhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the task endpoints. Everything here requires a bearer token.
func Routes(h *Handler, tokens *auth.Issuer) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireBearer(tokens))

	r.Get("/", h.HandleList)
	r.Post("/", h.HandleCreate)
	r.Put("/{id}", h.HandleUpdate)
	r.Patch("/{id}/status", h.HandleStatus)
	r.Delete("/{id}", h.HandleDelete)

	return r
}
