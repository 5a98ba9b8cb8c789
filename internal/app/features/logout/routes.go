// internal/app/features/logout/routes.go
package logout

import (
	"github.com/dalemusser/campuscard/internal/app/system/guard"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, g *guard.Guard) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		// Only signed-in users have anything to end.
		pr.Use(g.Require(guard.RequireAuth))
		pr.Get("/", h.ServeLogout)
		pr.Post("/", h.ServeLogout)
	})

	return r
}
