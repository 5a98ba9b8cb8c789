// Package lifecycle defines the account-lifecycle state machine of a
// CampusCard user: the moderation status, the email-verification flag,
// and the role. The three are independent state variables; no transition
// touches more than one of them.
//
// Every transition here is administrator-initiated. The functions are
// pure over State so the console can validate an action against the
// record it last fetched before it asks the CampusCard API to apply it.
// Machine applies the same transitions to stored records and is what the
// in-process reference backend uses.
package lifecycle

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/campuscard/internal/domain/models"
)

// Action names one administrator transition.
type Action string

const (
	ActionApprove             Action = "approve"
	ActionReject              Action = "reject"
	ActionSendVerification    Action = "send_verification"
	ActionConfirmVerification Action = "confirm_verification"
	ActionChangeRole          Action = "change_role"
)

var (
	// ErrInvalidTransition matches every *InvalidTransition via errors.Is.
	ErrInvalidTransition = errors.New("invalid lifecycle transition")
	// ErrInvalidToken is wrapped by confirmations whose token does not
	// match the outstanding one.
	ErrInvalidToken = errors.New("invalid verification token")
	// ErrTokenExpired is wrapped by confirmations of an expired token.
	ErrTokenExpired = errors.New("verification token expired")
)

// InvalidTransition reports an action the current state does not admit.
type InvalidTransition struct {
	Action Action
	From   models.Status
	Reason string
	Err    error
}

func (e *InvalidTransition) Error() string {
	msg := fmt.Sprintf("%s not allowed", e.Action)
	if e.From != models.StatusUnknown {
		msg += " from " + strings.ToLower(string(e.From))
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *InvalidTransition) Is(target error) bool { return target == ErrInvalidTransition }

func (e *InvalidTransition) Unwrap() error { return e.Err }

// State is the lifecycle-relevant slice of a user record.
type State struct {
	Status          models.Status
	EmailVerified   bool
	Role            models.Role
	RejectionReason string

	// VerificationHash is the bcrypt hash of the outstanding verification
	// token; empty when none is outstanding.
	VerificationHash   string
	VerificationSentAt time.Time
}

// Initial is the state of a freshly registered account.
func Initial() State {
	return State{
		Status: models.StatusPending,
		Role:   models.RoleStudent,
	}
}

// FromUser extracts the lifecycle state of u. Outstanding verification
// tokens are never part of an API response, so the hash is empty.
func FromUser(u models.User) State {
	return State{
		Status:          u.Status,
		EmailVerified:   u.EmailVerified,
		Role:            u.Role,
		RejectionReason: u.RejectionReason,
	}
}

// ApplyTo writes the lifecycle fields of s onto u.
func (s State) ApplyTo(u *models.User) {
	u.Status = s.Status
	u.EmailVerified = s.EmailVerified
	u.Role = s.Role
	u.RejectionReason = s.RejectionReason
}

// Approve moves status to APPROVED from PENDING or REJECTED and clears any
// rejection reason. Approving an APPROVED user is a no-op; changed
// reports whether anything moved.
func Approve(s State) (next State, changed bool, err error) {
	switch s.Status {
	case models.StatusApproved:
		return s, false, nil
	case models.StatusPending, models.StatusRejected:
		s.Status = models.StatusApproved
		s.RejectionReason = ""
		return s, true, nil
	}
	return s, false, &InvalidTransition{Action: ActionApprove, From: s.Status, Reason: "unknown status"}
}

// Reject moves status to REJECTED from PENDING or APPROVED and records
// reason. A REJECTED user cannot be rejected again.
func Reject(s State, reason string) (State, error) {
	switch s.Status {
	case models.StatusPending, models.StatusApproved:
		s.Status = models.StatusRejected
		s.RejectionReason = strings.TrimSpace(reason)
		return s, nil
	case models.StatusRejected:
		return s, &InvalidTransition{Action: ActionReject, From: s.Status, Reason: "already rejected"}
	}
	return s, &InvalidTransition{Action: ActionReject, From: s.Status, Reason: "unknown status"}
}

// ChangeRole sets the role. Status is untouched: promoting a PENDING
// student leaves a PENDING admin.
func ChangeRole(s State, role models.Role) (State, error) {
	if !role.Valid() {
		return s, &InvalidTransition{Action: ActionChangeRole, Reason: "unknown role"}
	}
	s.Role = role
	return s, nil
}

// CheckRoleActor rejects an actor changing their own role.
func CheckRoleActor(actorID, userID models.ID) error {
	if actorID != "" && actorID == userID {
		return &InvalidTransition{Action: ActionChangeRole, Reason: "cannot change own role"}
	}
	return nil
}

// CanSendVerification reports whether a verification token may be issued.
// Issuing is repeatable until the address is verified.
func CanSendVerification(s State) error {
	if s.EmailVerified {
		return &InvalidTransition{Action: ActionSendVerification, Reason: "email already verified"}
	}
	return nil
}

// CanConfirmVerification checks the preconditions of a confirmation that
// do not depend on the token itself.
func CanConfirmVerification(s State) error {
	if s.EmailVerified {
		return &InvalidTransition{Action: ActionConfirmVerification, Reason: "email already verified"}
	}
	return nil
}
