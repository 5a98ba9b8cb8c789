// internal/app/features/dashboard/routes.go
package dashboard

import (
	"github.com/dalemusser/campuscard/internal/app/system/guard"
	"github.com/go-chi/chi/v5"
)

// Routes wires the admin dashboard under whatever mount point the
// top-level router chooses (e.g., "/admin"). Role and status are
// refreshed from the API before an admin page is served.
func Routes(h *Handler, g *guard.Guard) chi.Router {
	r := chi.NewRouter()
	r.With(g.Require(guard.RequireAuth, guard.RequireAdmin)).Get("/", h.ServeAdmin)
	return r
}
