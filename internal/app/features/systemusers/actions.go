// internal/app/features/systemusers/actions.go
package systemusers

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/campuscard/internal/app/features/errors"
	"github.com/dalemusser/campuscard/internal/app/features/shared/respond"
	"github.com/dalemusser/campuscard/internal/app/system/dircache"
	"github.com/dalemusser/campuscard/internal/app/system/formutil"
	"github.com/dalemusser/campuscard/internal/app/system/limits"
	"github.com/dalemusser/campuscard/internal/app/system/moderation"
	"github.com/dalemusser/campuscard/internal/app/system/navigation"
	"github.com/dalemusser/campuscard/internal/app/system/timeouts"
	"github.com/dalemusser/campuscard/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// HandleApprove handles POST /admin/users/{id}/approve.
func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requireID(w, r)
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Write(), h.Log, "approve user")
	defer cancel()

	u, err := h.Moderation.Approve(ctx, moderation.ActorFrom(r), id)
	if err != nil {
		h.ErrLog.HandleError(w, r, err, "approve user")
		return
	}
	h.done(ctx, w, r, u, "User approved.")
}

// HandleReject handles POST /admin/users/{id}/reject. The reason is
// optional.
func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requireID(w, r)
	if !ok {
		return
	}
	vals, ok := h.form(w, r)
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Write(), h.Log, "reject user")
	defer cancel()

	u, err := h.Moderation.Reject(ctx, moderation.ActorFrom(r), id, formutil.First(vals, "rejectionReason", "reason"))
	if err != nil {
		h.ErrLog.HandleError(w, r, err, "reject user")
		return
	}
	h.done(ctx, w, r, u, "User rejected.")
}

// HandleSendVerification handles POST /admin/users/{id}/send-verification.
// In testing mode the API returns the token and it is passed through so
// the administrator can confirm it.
func (h *Handler) HandleSendVerification(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requireID(w, r)
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Write(), h.Log, "send verification")
	defer cancel()

	res, err := h.Moderation.SendVerification(ctx, moderation.ActorFrom(r), id)
	if err != nil {
		h.ErrLog.HandleError(w, r, err, "send verification")
		return
	}

	msg := res.Message
	if msg == "" {
		msg = "Verification email sent."
	}
	if navigation.WantsHTML(r) {
		navigation.Redirect(w, r, userPath(id))
		return
	}
	respond.JSON(w, http.StatusOK, verificationResult{
		Message:  msg,
		UserID:   id,
		Token:    res.Token,
		Info:     res.Info,
		Redirect: userPath(id),
	})
}

// HandleVerifyEmail handles POST /admin/users/{id}/verify-email and
// POST /admin/users/{id}/verify-email/{token}. The token may also be
// sent in the body.
func (h *Handler) HandleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requireID(w, r)
	if !ok {
		return
	}
	token := chi.URLParam(r, "token")
	if token == "" {
		vals, ok := h.form(w, r)
		if !ok {
			return
		}
		token = formutil.First(vals, "token", "verificationToken")
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Write(), h.Log, "verify email")
	defer cancel()

	actor := moderation.ActorFrom(r)
	if err := h.Moderation.ConfirmVerification(ctx, actor, id, token); err != nil {
		h.ErrLog.HandleError(w, r, err, "verify email")
		return
	}

	// The API answers with a message only; reload so callers see the flag.
	u, err := h.Moderation.GetUser(ctx, actor, id)
	if err != nil {
		h.Log.Warn("reload verified user", zap.String("user_id", id.String()), zap.Error(err))
		h.done(ctx, w, r, models.User{}, "Email verified.")
		return
	}
	h.done(ctx, w, r, u, "Email verified.")
}

// HandleChangeRole handles POST /admin/users/{id}/change-role.
func (h *Handler) HandleChangeRole(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requireID(w, r)
	if !ok {
		return
	}
	vals, ok := h.form(w, r)
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Write(), h.Log, "change role")
	defer cancel()

	u, err := h.Moderation.ChangeRole(ctx, moderation.ActorFrom(r), id, vals["role"])
	if err != nil {
		h.ErrLog.HandleError(w, r, err, "change role")
		return
	}
	h.done(ctx, w, r, u, "Role changed.")
}

func (h *Handler) requireID(w http.ResponseWriter, r *http.Request) (models.ID, bool) {
	id := userIDParam(r)
	if id == "" {
		uierrors.RenderBadRequest(w, r, "Invalid user ID.", map[string]string{"userId": "is required"})
		return "", false
	}
	return id, true
}

func (h *Handler) form(w http.ResponseWriter, r *http.Request) (map[string]string, bool) {
	vals, err := formutil.Values(w, r, limits.MaxAdminFormSize)
	if err != nil {
		h.ErrLog.HandleError(w, r, err, "read admin form")
		return nil, false
	}
	return vals, true
}

// done finishes a successful transition. Status and role feed the public
// directory, so its cached copy is dropped.
func (h *Handler) done(ctx context.Context, w http.ResponseWriter, r *http.Request, u models.User, msg string) {
	h.Cache.Invalidate(ctx, dircache.DirectoryKey)

	id := userIDParam(r)
	if navigation.WantsHTML(r) {
		navigation.Redirect(w, r, userPath(id))
		return
	}
	res := transitionResult{Message: msg, Redirect: userPath(id)}
	if u.ID != "" {
		res.User = &u
	}
	respond.JSON(w, http.StatusOK, res)
}
