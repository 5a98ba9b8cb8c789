// internal/app/features/status/routes.go
package status

import (
	"github.com/dalemusser/campuscard/internal/app/system/guard"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, g *guard.Guard) chi.Router {
	r := chi.NewRouter()
	r.With(g.Require(guard.RequireAuth)).Get("/", h.ServeStatus)
	return r
}
