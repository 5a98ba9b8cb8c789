// internal/app/features/systemusers/types.go
package systemusers

import (
	"time"

	"github.com/dalemusser/campuscard/internal/app/system/paging"
	"github.com/dalemusser/campuscard/internal/domain/models"
)

// userRow is one account in the moderation list.
type userRow struct {
	ID               models.ID     `json:"id"`
	Name             string        `json:"name"`
	Email            string        `json:"email"`
	Role             models.Role   `json:"role"`
	Status           models.Status `json:"status"`
	EmailVerified    bool          `json:"emailVerified"`
	Faculty          string        `json:"faculty,omitempty"`
	RegistrationDate string        `json:"registrationDate,omitempty"`
}

type listData struct {
	// Filters
	Query    string `json:"q,omitempty"`
	Status   string `json:"status,omitempty"`
	Role     string `json:"role,omitempty"`
	Verified string `json:"verified,omitempty"`

	paging.Page[userRow]
}

// userDetail is the full record an administrator reviews, including the
// national ID scan.
type userDetail struct {
	models.User
	Name    string         `json:"name"`
	Actions []string       `json:"actions"`
	History []historyEntry `json:"history,omitempty"`
}

// historyEntry is one stored audit event about the user, newest first.
type historyEntry struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType string            `json:"eventType"`
	ActorID   string            `json:"actorId,omitempty"`
	Success   bool              `json:"success"`
	Reason    string            `json:"reason,omitempty"`
	Details   map[string]string `json:"details,omitempty"`
}

// transitionResult answers API callers after a moderation action.
type transitionResult struct {
	User     *models.User `json:"user,omitempty"`
	Message  string       `json:"message"`
	Redirect string       `json:"redirect"`
}

type verificationResult struct {
	Message  string    `json:"message"`
	UserID   models.ID `json:"userId"`
	Token    string    `json:"token,omitempty"`
	Info     string    `json:"info,omitempty"`
	Redirect string    `json:"redirect"`
}

func toRow(u models.User) userRow {
	return userRow{
		ID:               u.ID,
		Name:             u.FullName(),
		Email:            u.Email,
		Role:             u.Role,
		Status:           u.Status,
		EmailVerified:    u.EmailVerified,
		Faculty:          u.Faculty,
		RegistrationDate: u.RegistrationDate,
	}
}
