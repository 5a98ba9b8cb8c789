// internal/app/features/auditlog/routes.go
package auditlog

import (
	"github.com/dalemusser/campuscard/internal/app/system/guard"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the audit trail under the path where this router is
// mounted (typically "/admin/audit" from bootstrap). Administrators only.
func Routes(h *Handler, g *guard.Guard) chi.Router {
	r := chi.NewRouter()
	r.Use(g.Require(guard.RequireAuth, guard.RequireAdmin))
	r.Get("/", h.ServeList)
	return r
}
