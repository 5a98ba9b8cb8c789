// internal/app/features/login/handler.go
package login

// Terminology: User Identifiers
//   - UserID / userID / user_id: the numeric id the CampusCard API assigns
//   - Identifier: what the user types to sign in, an email or a national ID

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	uierrors "github.com/dalemusser/campuscard/internal/app/features/errors"
	"github.com/dalemusser/campuscard/internal/app/features/shared/respond"
	"github.com/dalemusser/campuscard/internal/app/system/apiclient"
	"github.com/dalemusser/campuscard/internal/app/system/apperr"
	"github.com/dalemusser/campuscard/internal/app/system/auditlog"
	"github.com/dalemusser/campuscard/internal/app/system/auth"
	"github.com/dalemusser/campuscard/internal/app/system/formutil"
	"github.com/dalemusser/campuscard/internal/app/system/guard"
	"github.com/dalemusser/campuscard/internal/app/system/inputval"
	"github.com/dalemusser/campuscard/internal/app/system/limits"
	"github.com/dalemusser/campuscard/internal/app/system/navigation"
	"github.com/dalemusser/campuscard/internal/app/system/ratelimit"
	"github.com/dalemusser/campuscard/internal/domain/models"
	"go.uber.org/zap"
)

// AdminLanding is where administrators land after signing in.
const AdminLanding = "/admin/users"

// API is the part of the CampusCard API sign-in needs.
type API interface {
	Login(ctx context.Context, identifier, password string) (apiclient.LoginResult, error)
}

type Handler struct {
	API      API
	Sessions *auth.SessionManager
	Limiter  *ratelimit.LoginLimiter
	AuditLog *auditlog.Logger
	ErrLog   *uierrors.ErrorLogger
	Log      *zap.Logger
}

func NewHandler(api API, sessions *auth.SessionManager, limiter *ratelimit.LoginLimiter, audit *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		API:      api,
		Sessions: sessions,
		Limiter:  limiter,
		AuditLog: audit,
		ErrLog:   errLog,
		Log:      logger,
	}
}

type loginInput struct {
	Identifier string `json:"identifier" validate:"required,identifier" label:"Email or national ID"`
	Password   string `json:"password" validate:"required,max=128" label:"Password"`
}

// loginState is what GET /login reports to the page.
type loginState struct {
	Authenticated bool          `json:"authenticated"`
	Email         string        `json:"email,omitempty"`
	Role          models.Role   `json:"role,omitempty"`
	Status        models.Status `json:"status,omitempty"`
	Landing       string        `json:"landing,omitempty"`
	ReturnURL     string        `json:"returnUrl,omitempty"`
}

// Landing picks the first page for a freshly signed-in session:
// administrators go to moderation, accounts not yet approved to their
// status page, everyone else to their own profile.
func Landing(s *auth.Session) string {
	switch {
	case s.IsAdmin():
		return AdminLanding
	case !s.IsApproved():
		return guard.StatusPath
	}
	return guard.HomePath
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /login                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	ret := navigation.SafeTarget(r.URL.Query().Get("return"), "")

	s, _ := auth.CurrentSession(r)
	if !s.Authenticated() {
		respond.JSON(w, http.StatusOK, loginState{ReturnURL: ret})
		return
	}
	// Already signed in: page navigations skip the form.
	if navigation.WantsHTML(r) {
		navigation.Redirect(w, r, Landing(s))
		return
	}
	respond.JSON(w, http.StatusOK, loginState{
		Authenticated: true,
		Email:         s.Email,
		Role:          s.Role,
		Status:        s.Status,
		Landing:       Landing(s),
		ReturnURL:     ret,
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /login                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	vals, err := formutil.Values(w, r, limits.MaxLoginBodySize)
	if err != nil {
		h.ErrLog.HandleError(w, r, err, "login")
		return
	}

	in := loginInput{
		Identifier: formutil.First(vals, "identifier", "email", "nationalId"),
		Password:   vals["password"],
	}
	if res := inputval.Validate(in); res.HasErrors() {
		h.ErrLog.HandleError(w, r, res.Err(), "login")
		return
	}

	ok, reason := h.Limiter.Check(r, in.Identifier)
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(h.Limiter.Remaining(r, in.Identifier)))
	if !ok {
		h.Log.Warn("login rate limited",
			zap.String("identifier", in.Identifier),
			zap.String("ip", ratelimit.ClientIP(r)))
		h.AuditLog.LoginRateLimited(r.Context(), r, in.Identifier, reason)
		w.Header().Set("Retry-After", "60")
		uierrors.WriteJSON(w, http.StatusTooManyRequests, uierrors.Body{
			Error:   uierrors.KindRateLimited,
			Message: reason,
		})
		return
	}

	res, err := h.API.Login(r.Context(), in.Identifier, in.Password)
	if err != nil {
		credentials := errors.Is(err, apperr.ErrInvalidCredentials)
		_, body := uierrors.Classify(err)
		h.AuditLog.LoginFailed(r.Context(), r, in.Identifier, credentials, body.Error)
		h.ErrLog.HandleError(w, r, err, "login")
		return
	}

	sess := auth.Session{
		Token:  res.Token,
		UserID: res.ID,
		Email:  res.Email,
		Role:   res.Role,
		Status: res.Status,
	}
	if sess.Email == "" && inputval.IsValidEmail(in.Identifier) {
		sess.Email = in.Identifier
	}
	// A fresh login supersedes an earlier logout of the same token.
	h.Sessions.Unrevoke(sess.Token)
	if err := h.Sessions.For(w, r).Set(sess); err != nil {
		h.ErrLog.HandleError(w, r, err, "login: store session")
		return
	}
	h.Limiter.ResetIdentifier(in.Identifier)
	h.AuditLog.LoginSuccess(r.Context(), r, sess.UserID, in.Identifier)
	h.Log.Info("user signed in",
		zap.String("user_id", sess.UserID.String()),
		zap.String("role", sess.Role.String()),
		zap.String("status", sess.Status.String()))

	target := Landing(&sess)
	// A return target only applies to accounts that can use the site.
	if ret := navigation.SafeTarget(vals["return"], ""); ret != "" && (sess.IsAdmin() || sess.IsApproved()) {
		target = ret
	}
	respond.Navigate(w, r, target, res.Message)
}
