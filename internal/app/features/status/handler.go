// internal/app/features/status/handler.go
package status

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/campuscard/internal/app/features/errors"
	"github.com/dalemusser/campuscard/internal/app/features/login"
	"github.com/dalemusser/campuscard/internal/app/features/shared/respond"
	"github.com/dalemusser/campuscard/internal/app/system/apiclient"
	"github.com/dalemusser/campuscard/internal/app/system/auditlog"
	"github.com/dalemusser/campuscard/internal/app/system/auth"
	"github.com/dalemusser/campuscard/internal/domain/models"
	"go.uber.org/zap"
)

// API is the part of the CampusCard API the status page needs.
type API interface {
	CurrentStatus(ctx context.Context, token string) (models.Role, models.Status, error)
}

type Handler struct {
	API      API
	Sessions *auth.SessionManager
	AuditLog *auditlog.Logger
	ErrLog   *uierrors.ErrorLogger
	Log      *zap.Logger
}

func NewHandler(api API, sessions *auth.SessionManager, audit *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		API:      api,
		Sessions: sessions,
		AuditLog: audit,
		ErrLog:   errLog,
		Log:      logger,
	}
}

type statusView struct {
	UserID    models.ID     `json:"userId"`
	Email     string        `json:"email"`
	Role      models.Role   `json:"role"`
	Status    models.Status `json:"status"`
	Refreshed bool          `json:"refreshed"`
	Changed   bool          `json:"changed"`
	Message   string        `json:"message"`
	Next      string        `json:"next"`
}

func statusMessage(s models.Status) string {
	switch s {
	case models.StatusPending:
		return "Your registration is waiting for an administrator to review it."
	case models.StatusApproved:
		return "Your account is approved."
	case models.StatusRejected:
		return "Your registration was not approved. Contact the student affairs office for details."
	}
	return "Your account status is unknown."
}

// ServeStatus handles GET /status. It asks the API for the freshest role
// and status, rewrites the session when they moved, and falls back to the
// session's copy when the API cannot answer.
func (h *Handler) ServeStatus(w http.ResponseWriter, r *http.Request) {
	s, ok := auth.CurrentSession(r)
	if !ok || !s.Authenticated() {
		uierrors.RenderUnauthorized(w, r)
		return
	}

	view := statusView{UserID: s.UserID, Email: s.Email, Role: s.Role, Status: s.Status}

	role, st, err := h.API.CurrentStatus(r.Context(), s.Token)
	switch {
	case apiclient.IsUnauthorized(err):
		h.ErrLog.HandleError(w, r, err, "status refresh")
		return
	case errors.Is(err, apiclient.ErrStatusUnavailable):
		h.Log.Debug("status refresh: profile carries no status", zap.String("user_id", s.UserID.String()))
	case err != nil:
		h.Log.Warn("status refresh failed, showing cached status",
			zap.String("user_id", s.UserID.String()),
			zap.Error(err))
	default:
		view.Refreshed = true
		if role != s.Role || st != s.Status {
			fresh := *s
			fresh.Role, fresh.Status = role, st
			if err := h.Sessions.For(w, r).Set(fresh); err != nil {
				h.ErrLog.HandleError(w, r, err, "status refresh: store session")
				return
			}
			h.AuditLog.SessionStatusRefreshed(r.Context(), r, s.UserID, s.Status, st, role)
			view.Role, view.Status, view.Changed = role, st, true
		}
	}

	view.Message = statusMessage(view.Status)
	view.Next = login.Landing(&auth.Session{Role: view.Role, Status: view.Status})
	respond.JSON(w, http.StatusOK, view)
}
