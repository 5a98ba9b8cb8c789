// internal/app/features/systemusers/routes.go
package systemusers

import (
	"github.com/dalemusser/campuscard/internal/app/system/guard"
	"github.com/go-chi/chi/v5"
)

// Routes mounts account moderation under the path where this router is
// mounted (typically "/admin/users" from bootstrap).
//
// Example mount from bootstrap:
//
//	h := systemusers.NewHandler(mod, cache, auditStore, errLog, logger)
//	r.Mount("/admin/users", systemusers.Routes(h, g))
func Routes(h *Handler, g *guard.Guard) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		// Role is re-read from the API before every admin request.
		pr.Use(g.Require(guard.RequireAuth, guard.RequireAdmin))

		pr.Get("/", h.ServeList)
		pr.Get("/pending", h.ServePending)
		pr.Get("/{id}", h.ServeView)

		pr.Post("/{id}/approve", h.HandleApprove)
		pr.Post("/{id}/reject", h.HandleReject)
		pr.Post("/{id}/send-verification", h.HandleSendVerification)
		pr.Post("/{id}/verify-email", h.HandleVerifyEmail)
		pr.Post("/{id}/verify-email/{token}", h.HandleVerifyEmail)
		pr.Post("/{id}/change-role", h.HandleChangeRole)
	})

	return r
}
