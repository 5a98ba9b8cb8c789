// internal/app/features/systemusers/view.go
package systemusers

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/campuscard/internal/app/features/errors"
	"github.com/dalemusser/campuscard/internal/app/features/shared/respond"
	"github.com/dalemusser/campuscard/internal/app/system/moderation"
	"github.com/dalemusser/campuscard/internal/app/system/timeouts"
	"github.com/dalemusser/campuscard/internal/domain/models"
	"go.uber.org/zap"
)

// ServeView handles GET /admin/users/{id}: the full record with the
// actions the console would allow on it.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	id := userIDParam(r)
	if id == "" {
		uierrors.RenderBadRequest(w, r, "Invalid user ID.", nil)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Read(), h.Log, "view user")
	defer cancel()

	actor := moderation.ActorFrom(r)
	u, err := h.Moderation.GetUser(ctx, actor, id)
	if err != nil {
		h.ErrLog.HandleError(w, r, err, "get user")
		return
	}

	respond.JSON(w, http.StatusOK, userDetail{
		User:    u,
		Name:    u.FullName(),
		Actions: availableActions(actor.ID, u),
		History: h.history(ctx, id),
	})
}

// history returns the stored audit trail of the user. A failed lookup
// leaves the page without it.
func (h *Handler) history(ctx context.Context, id models.ID) []historyEntry {
	if h.Audit == nil {
		return nil
	}
	events, err := h.Audit.GetByUser(ctx, id.String(), historyLimit)
	if err != nil {
		h.Log.Warn("load user audit history", zap.String("user_id", id.String()), zap.Error(err))
		return nil
	}
	out := make([]historyEntry, 0, len(events))
	for _, e := range events {
		out = append(out, historyEntry{
			Timestamp: e.Timestamp,
			EventType: e.EventType,
			ActorID:   e.ActorID,
			Success:   e.Success,
			Reason:    e.FailureReason,
			Details:   e.Details,
		})
	}
	return out
}
