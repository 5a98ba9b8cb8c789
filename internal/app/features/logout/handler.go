// internal/app/features/logout/handler.go
package logout

import (
	"net/http"

	"github.com/dalemusser/campuscard/internal/app/features/shared/respond"
	"github.com/dalemusser/campuscard/internal/app/system/auditlog"
	"github.com/dalemusser/campuscard/internal/app/system/auth"
	"go.uber.org/zap"
)

type Handler struct {
	Log    *zap.Logger
	Logout *auth.LogoutCoordinator
}

func NewHandler(logout *auth.LogoutCoordinator, logger *zap.Logger) *Handler {
	return &Handler{
		Log:    logger,
		Logout: logout,
	}
}

// AuditHook records every ended session, whether the user signed out or
// the API rejected the token.
func AuditHook(audit *auditlog.Logger) auth.LogoutHook {
	return func(r *http.Request, s auth.Session, reason auth.LogoutReason) {
		audit.Logout(r.Context(), r, s.UserID, string(reason))
	}
}

// ServeLogout handles GET and POST /logout.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	s, _ := auth.CurrentSession(r)
	if !h.Logout.Logout(w, r, s, auth.ReasonUserLogout) {
		h.Log.Debug("logout: session already ended")
	}
	respond.Navigate(w, r, "/", "Signed out.")
}
