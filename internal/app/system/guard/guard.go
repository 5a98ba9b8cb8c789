// Package guard gates routes on the current session.
//
// Policies:
//   - RequireAuth: a session token is present; otherwise /login
//   - RequireAdmin: token present and role ADMIN; /login without a token,
//     /me otherwise
//   - RequireApprovedStudent: ADMIN always passes; otherwise token present
//     and status APPROVED; /login without a token, /status otherwise
//
// Policies are pure functions of the session and compose in declared
// order; the first denial wins. The Guard middleware adapts them to HTTP
// and, for policies that read role or status, refreshes both from the API
// before evaluating.
package guard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dalemusser/campuscard/internal/app/system/apiclient"
	"github.com/dalemusser/campuscard/internal/app/system/auth"
	"github.com/dalemusser/campuscard/internal/app/system/navigation"
	"github.com/dalemusser/campuscard/internal/domain/models"
	"go.uber.org/zap"
)

// Denial redirect targets.
const (
	LoginPath  = "/login"
	HomePath   = "/me"
	StatusPath = "/status"
)

// Policy is one named access rule.
type Policy struct {
	Name string
	// Refresh marks policies whose outcome depends on role or status.
	Refresh bool
	// Check returns "" to allow, or the path to send the caller to.
	Check func(s *auth.Session) string
}

// Decision is the result of evaluating policies against a session.
type Decision struct {
	Allowed  bool
	Policy   string // the denying policy
	Redirect string
}

var RequireAuth = Policy{
	Name: "require_auth",
	Check: func(s *auth.Session) string {
		if !s.Authenticated() {
			return LoginPath
		}
		return ""
	},
}

var RequireAdmin = Policy{
	Name:    "require_admin",
	Refresh: true,
	Check: func(s *auth.Session) string {
		switch {
		case !s.Authenticated():
			return LoginPath
		case !s.IsAdmin():
			return HomePath
		}
		return ""
	},
}

var RequireApprovedStudent = Policy{
	Name:    "require_approved_student",
	Refresh: true,
	Check: func(s *auth.Session) string {
		switch {
		case s.IsAdmin() && s.Authenticated():
			return ""
		case !s.Authenticated():
			return LoginPath
		case !s.IsApproved():
			return StatusPath
		}
		return ""
	},
}

// Evaluate runs policies in order against s. With no policies every
// session, including none, is allowed.
func Evaluate(s *auth.Session, policies ...Policy) Decision {
	for _, p := range policies {
		if target := p.Check(s); target != "" {
			return Decision{Policy: p.Name, Redirect: target}
		}
	}
	return Decision{Allowed: true}
}

// StatusSource reports the freshest role and status for a token.
type StatusSource interface {
	CurrentStatus(ctx context.Context, token string) (models.Role, models.Status, error)
}

// Guard applies policies to HTTP requests.
type Guard struct {
	sessions *auth.SessionManager
	source   StatusSource
	logout   *auth.LogoutCoordinator
	log      *zap.Logger
}

// New returns a Guard. source may be nil, in which case sessions are
// never refreshed.
func New(sm *auth.SessionManager, source StatusSource, logout *auth.LogoutCoordinator, logger *zap.Logger) *Guard {
	return &Guard{sessions: sm, source: source, logout: logout, log: logger}
}

// Require returns middleware enforcing policies. It expects
// SessionManager.LoadSession to have run earlier in the chain.
func (g *Guard) Require(policies ...Policy) func(http.Handler) http.Handler {
	refresh := false
	for _, p := range policies {
		refresh = refresh || p.Refresh
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, _ := auth.CurrentSession(r)

			if refresh && s.Authenticated() && g.source != nil {
				fresh, ok := g.refresh(w, r, s)
				if !ok {
					return
				}
				if fresh != s {
					s = fresh
					r = auth.WithSession(r, s)
				}
			}

			d := Evaluate(s, policies...)
			if d.Allowed {
				next.ServeHTTP(w, r)
				return
			}
			g.deny(w, r, s, d)
		})
	}
}

// refresh re-reads role and status. It returns ok=false when the request
// has already been answered (the token was rejected).
func (g *Guard) refresh(w http.ResponseWriter, r *http.Request, s *auth.Session) (*auth.Session, bool) {
	role, status, err := g.source.CurrentStatus(r.Context(), s.Token)
	if err != nil {
		if apiclient.IsUnauthorized(err) {
			g.logout.HandleUnauthorized(w, r)
			return nil, false
		}
		lvl := g.log.Warn
		if errors.Is(err, apiclient.ErrStatusUnavailable) {
			lvl = g.log.Debug
		}
		lvl("status refresh failed, using cached session",
			zap.String("user_id", s.UserID.String()),
			zap.Error(err))
		return s, true
	}
	if role == s.Role && status == s.Status {
		return s, true
	}

	fresh := *s
	fresh.Role = role
	fresh.Status = status
	if err := g.sessions.For(w, r).Set(fresh); err != nil {
		g.log.Warn("failed to store refreshed session", zap.Error(err))
	}
	g.log.Info("session refreshed",
		zap.String("user_id", s.UserID.String()),
		zap.String("role", role.String()),
		zap.String("status", status.String()))
	return &fresh, true
}

type denialBody struct {
	Error    string `json:"error"`
	Message  string `json:"message"`
	Policy   string `json:"policy"`
	Redirect string `json:"redirect"`
}

func (g *Guard) deny(w http.ResponseWriter, r *http.Request, s *auth.Session, d Decision) {
	g.log.Debug("access denied",
		zap.String("policy", d.Policy),
		zap.String("path", r.URL.Path),
		zap.Bool("authenticated", s.Authenticated()))

	if navigation.WantsHTML(r) {
		navigation.Redirect(w, r, d.Redirect)
		return
	}

	body := denialBody{Policy: d.Policy, Redirect: d.Redirect}
	code := http.StatusForbidden
	if s.Authenticated() {
		body.Error, body.Message = "forbidden", "access denied"
	} else {
		code = http.StatusUnauthorized
		body.Error, body.Message = "unauthorized", "sign in required"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
