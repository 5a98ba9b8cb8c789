package auth

import (
	"net/http"

	"github.com/dalemusser/campuscard/internal/app/system/navigation"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// LogoutReason says why a session ended.
type LogoutReason string

const (
	ReasonUserLogout   LogoutReason = "user_logout"
	ReasonUnauthorized LogoutReason = "unauthorized"
)

// LogoutHook runs once per ended session, after the token is revoked.
type LogoutHook func(r *http.Request, s Session, reason LogoutReason)

// LogoutCoordinator ends sessions. Clearing the slot happens on every
// call; revocation and the hook run once per token no matter how many
// requests fail with 401 at the same time.
type LogoutCoordinator struct {
	sessions *SessionManager
	group    singleflight.Group
	hook     LogoutHook
	logger   *zap.Logger
}

// NewLogoutCoordinator returns a coordinator over sm. hook may be nil.
func NewLogoutCoordinator(sm *SessionManager, hook LogoutHook, logger *zap.Logger) *LogoutCoordinator {
	return &LogoutCoordinator{sessions: sm, hook: hook, logger: logger}
}

// Logout clears the slot for this navigation and ends s. It reports
// whether this call performed the once-per-token side effects.
func (c *LogoutCoordinator) Logout(w http.ResponseWriter, r *http.Request, s *Session, reason LogoutReason) bool {
	if err := c.sessions.For(w, r).Clear(); err != nil {
		c.logger.Warn("failed to clear session", zap.Error(err))
	}
	if !s.Authenticated() {
		return false
	}

	v, _, _ := c.group.Do(s.Token, func() (any, error) {
		if !c.sessions.Revoke(s.Token) {
			return false, nil
		}
		c.logger.Info("session ended",
			zap.String("user_id", s.UserID.String()),
			zap.String("reason", string(reason)))
		if c.hook != nil {
			c.hook(r, *s, reason)
		}
		return true, nil
	})
	ran, _ := v.(bool)
	return ran
}

// HandleUnauthorized is the global reaction to a 401 from the API: the
// session is discarded and the browser is sent to /login.
func (c *LogoutCoordinator) HandleUnauthorized(w http.ResponseWriter, r *http.Request) {
	s, _ := CurrentSession(r)
	if s == nil {
		s = c.sessions.Load(r)
	}
	c.Logout(w, r, s, ReasonUnauthorized)

	if navigation.WantsHTML(r) {
		navigation.Redirect(w, r, "/login")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","message":"session expired","redirect":"/login"}`))
}
