// internal/app/features/dashboard/admin.go
package dashboard

import (
	"net/http"
	"time"

	"github.com/dalemusser/campuscard/internal/app/features/shared/respond"
	"github.com/dalemusser/campuscard/internal/app/store/audit"
	"github.com/dalemusser/campuscard/internal/app/system/moderation"
	"github.com/dalemusser/campuscard/internal/app/system/timeouts"
	"github.com/dalemusser/campuscard/internal/domain/models"
	"go.uber.org/zap"
)

type pendingItem struct {
	ID               models.ID `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	EmailVerified    bool      `json:"emailVerified"`
	RegistrationDate string    `json:"registrationDate,omitempty"`
}

type eventItem struct {
	Timestamp time.Time `json:"timestamp"`
	EventType string    `json:"eventType"`
	UserID    string    `json:"userId,omitempty"`
	ActorID   string    `json:"actorId,omitempty"`
	IP        string    `json:"ip,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Success   bool      `json:"success"`
}

func toEventItems(events []audit.Event) []eventItem {
	if len(events) == 0 {
		return nil
	}
	out := make([]eventItem, 0, len(events))
	for _, e := range events {
		out = append(out, eventItem{
			Timestamp: e.Timestamp,
			EventType: e.EventType,
			UserID:    e.UserID,
			ActorID:   e.ActorID,
			IP:        e.IP,
			Reason:    e.FailureReason,
			Success:   e.Success,
		})
	}
	return out
}

type adminData struct {
	Stats        models.DashboardStats `json:"stats"`
	Pending      []pendingItem         `json:"pending"`
	PendingTotal int                   `json:"pendingTotal"`
	Recent       []eventItem           `json:"recent,omitempty"`
	FailedLogins []eventItem           `json:"failedLogins,omitempty"`
}

// ServeAdmin handles GET /admin: the moderation counters and the head of
// the approval queue. When audit events are stored it adds the latest
// events and the failed sign-ins of the last day.
func (h *Handler) ServeAdmin(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Read(), h.Log, "admin dashboard")
	defer cancel()

	actor := moderation.ActorFrom(r)

	stats, err := h.Moderation.Stats(ctx, actor)
	if err != nil {
		h.ErrLog.HandleError(w, r, err, "load dashboard stats")
		return
	}
	pending, err := h.Moderation.ListPending(ctx, actor)
	if err != nil {
		h.ErrLog.HandleError(w, r, err, "load pending users")
		return
	}

	data := adminData{
		Stats:        stats,
		Pending:      make([]pendingItem, 0, pendingPreview),
		PendingTotal: len(pending),
	}
	for i, u := range pending {
		if i == pendingPreview {
			break
		}
		data.Pending = append(data.Pending, pendingItem{
			ID:               u.ID,
			Name:             u.FullName(),
			Email:            u.Email,
			EmailVerified:    u.EmailVerified,
			RegistrationDate: u.RegistrationDate,
		})
	}

	if h.Audit != nil {
		// The dashboard is still useful without the trail.
		events, err := h.Audit.GetRecent(ctx, recentEvents)
		if err != nil {
			h.Log.Warn("load recent audit events", zap.Error(err))
		}
		data.Recent = toEventItems(events)

		failed, err := h.Audit.GetFailedLogins(ctx, time.Now().UTC().Add(-failedWindow), failedLogins)
		if err != nil {
			h.Log.Warn("load failed logins", zap.Error(err))
		}
		data.FailedLogins = toEventItems(failed)
	}

	h.Log.Debug("admin dashboard served", zap.String("user", actor.ID.String()))
	respond.JSON(w, http.StatusOK, data)
}
