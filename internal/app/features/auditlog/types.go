// internal/app/features/auditlog/types.go
package auditlog

import (
	"time"

	"github.com/dalemusser/campuscard/internal/app/store/audit"
)

// listItem is one audit event as the moderation console shows it.
type listItem struct {
	ID            string            `json:"id"`
	Timestamp     time.Time         `json:"timestamp"`
	Category      string            `json:"category"`
	EventType     string            `json:"eventType"`
	UserID        string            `json:"userId,omitempty"`
	ActorID       string            `json:"actorId,omitempty"`
	IP            string            `json:"ip,omitempty"`
	Success       bool              `json:"success"`
	FailureReason string            `json:"failureReason,omitempty"`
	Details       map[string]string `json:"details,omitempty"`
}

type listData struct {
	Items []listItem `json:"items"`

	// Filters
	Category  string `json:"category,omitempty"`
	EventType string `json:"eventType,omitempty"`
	UserID    string `json:"userId,omitempty"`
	ActorID   string `json:"actorId,omitempty"`
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`

	// Filter options
	Categories []categoryOption `json:"categories"`

	// Pagination
	Page       int   `json:"page"`
	TotalPages int   `json:"totalPages"`
	Total      int64 `json:"total"`
	HasPrev    bool  `json:"hasPrev"`
	HasNext    bool  `json:"hasNext"`
}

type categoryOption struct {
	Value      string   `json:"value"`
	Label      string   `json:"label"`
	EventTypes []string `json:"eventTypes"`
}

func allCategories() []categoryOption {
	return []categoryOption{
		{
			Value: audit.CategoryAuth,
			Label: "Authentication",
			EventTypes: []string{
				audit.EventLoginSuccess,
				audit.EventLoginFailedCredentials,
				audit.EventLoginFailedUnavailable,
				audit.EventLoginFailedRateLimit,
				audit.EventLogout,
				audit.EventSessionStatusRefreshed,
				audit.EventSignupSubmitted,
			},
		},
		{
			Value: audit.CategoryAdmin,
			Label: "Moderation",
			EventTypes: []string{
				audit.EventUserApproved,
				audit.EventUserRejected,
				audit.EventVerificationSent,
				audit.EventEmailVerified,
				audit.EventRoleChanged,
			},
		},
	}
}

func toItem(e audit.Event) listItem {
	return listItem{
		ID:            e.ID,
		Timestamp:     e.Timestamp,
		Category:      e.Category,
		EventType:     e.EventType,
		UserID:        e.UserID,
		ActorID:       e.ActorID,
		IP:            e.IP,
		Success:       e.Success,
		FailureReason: e.FailureReason,
		Details:       e.Details,
	}
}
