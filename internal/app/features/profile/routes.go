// internal/app/features/profile/routes.go
package profile

import (
	"github.com/dalemusser/campuscard/internal/app/system/guard"
	"github.com/go-chi/chi/v5"
)

// Routes serves /profile. Visibility is decided per profile, so no guard
// policy applies.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/{id}", h.ServeProfile)
	return r
}

// MeRoutes serves /me to approved students and administrators.
func MeRoutes(h *Handler, g *guard.Guard) chi.Router {
	r := chi.NewRouter()
	r.With(g.Require(guard.RequireAuth, guard.RequireApprovedStudent)).Get("/", h.ServeMe)
	return r
}
