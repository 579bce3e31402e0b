// internal/app/features/authapi/routes.go
package authapi

import (
	"github.com/dalemusser/taskhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the router for the password auth endpoints and /auth/me.
// Signup and signin are public; /me requires a bearer token.
func Routes(h *Handler, tokens *auth.Issuer) chi.Router {
	r := chi.NewRouter()

	r.Post("/signup", h.HandleSignup)
	r.Post("/signin", h.HandleSignin)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireBearer(tokens))
		r.Get("/me", h.HandleMe)
	})

	return r
}
