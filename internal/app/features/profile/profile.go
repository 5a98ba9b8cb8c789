// internal/app/features/profile/profile.go
package profile

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	uierrors "github.com/dalemusser/campuscard/internal/app/features/errors"
	"github.com/dalemusser/campuscard/internal/app/features/shared/respond"
	"github.com/dalemusser/campuscard/internal/app/policy/visibilitypolicy"
	"github.com/dalemusser/campuscard/internal/app/system/auth"
	"github.com/dalemusser/campuscard/internal/app/system/guard"
	"github.com/dalemusser/campuscard/internal/app/system/htmlsanitize"
	"github.com/dalemusser/campuscard/internal/app/system/navigation"
	"github.com/dalemusser/campuscard/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ServeProfile handles GET /profile/{id}. The API's answer and the
// visibility rules must both allow the viewer; a denial never ends the
// viewer's session.
func (h *Handler) ServeProfile(w http.ResponseWriter, r *http.Request) {
	id := models.ID(strings.TrimSpace(chi.URLParam(r, "id")))
	if id == "" {
		uierrors.RenderNotFound(w, r, "Profile not found.")
		return
	}

	s, _ := auth.CurrentSession(r)
	viewer := visibilitypolicy.ViewerFrom(s)
	var token string
	if viewer.Authenticated {
		token = s.Token
	}

	p, err := h.API.Profile(r.Context(), token, id)
	if err != nil {
		h.deny(w, r, visibilitypolicy.Classify(err, viewer))
		return
	}
	if p.UserID == "" {
		p.UserID = id
	}
	p, err = visibilitypolicy.Filter(p, viewer)
	if err != nil {
		h.deny(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, htmlsanitize.Profile(p))
}

// deny renders a profile failure. Anonymous page visitors asked to sign
// in are sent to the login page with a way back.
func (h *Handler) deny(w http.ResponseWriter, r *http.Request, err error) {
	var fv *visibilitypolicy.ForbiddenVisibility
	if errors.As(err, &fv) {
		h.Log.Debug("profile denied",
			zap.String("path", r.URL.Path),
			zap.String("reason", string(fv.Reason)))
		if fv.Reason == visibilitypolicy.ReasonSignInRequired && navigation.WantsHTML(r) {
			navigation.Redirect(w, r, guard.LoginPath+"?return="+url.QueryEscape(r.URL.Path))
			return
		}
	}
	h.ErrLog.HandleError(w, r, err, "view profile")
}

// ServeMe handles GET /me: the signed-in student's own card.
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	s, ok := auth.CurrentSession(r)
	if !ok || !s.Authenticated() {
		uierrors.RenderUnauthorized(w, r)
		return
	}

	p, err := h.API.MyProfile(r.Context(), s.Token)
	if err != nil {
		h.ErrLog.HandleError(w, r, err, "view own profile")
		return
	}
	if p.UserID == "" {
		p.UserID = s.UserID
	}
	respond.JSON(w, http.StatusOK, htmlsanitize.Profile(p))
}
