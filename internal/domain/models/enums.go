// internal/domain/models/enums.go
package models

import (
	"encoding/json"
	"strings"
)

// Role is the canonical account role. Values arriving from the session
// cookie, the CampusCard API or form input are folded into one of these
// constants exactly once, at decode time; nothing downstream compares
// raw strings.
type Role string

const (
	RoleUnknown Role = ""
	RoleStudent Role = "STUDENT"
	RoleAdmin   Role = "ADMIN"
)

// ParseRole folds s case-insensitively into a Role.
// ok is false when s names no known role.
func ParseRole(s string) (Role, bool) {
	switch fold(s) {
	case "STUDENT":
		return RoleStudent, true
	case "ADMIN":
		return RoleAdmin, true
	}
	return RoleUnknown, false
}

func (r Role) String() string { return string(r) }

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool { return r == RoleStudent || r == RoleAdmin }

func (r *Role) UnmarshalJSON(b []byte) error {
	s, err := decodeEnum(b)
	if err != nil {
		return err
	}
	*r, _ = ParseRole(s)
	return nil
}

// Status is the moderation status axis.
type Status string

const (
	StatusUnknown  Status = ""
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// ParseStatus folds s case-insensitively into a Status.
func ParseStatus(s string) (Status, bool) {
	switch fold(s) {
	case "PENDING":
		return StatusPending, true
	case "APPROVED":
		return StatusApproved, true
	case "REJECTED":
		return StatusRejected, true
	}
	return StatusUnknown, false
}

func (s Status) String() string { return string(s) }

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

func (s *Status) UnmarshalJSON(b []byte) error {
	raw, err := decodeEnum(b)
	if err != nil {
		return err
	}
	*s, _ = ParseStatus(raw)
	return nil
}

// Visibility is a profile's disclosure tier.
type Visibility string

const (
	VisibilityUnknown      Visibility = ""
	VisibilityPublic       Visibility = "PUBLIC"
	VisibilityStudentsOnly Visibility = "STUDENTS_ONLY"
	VisibilityPrivate      Visibility = "PRIVATE"
)

// ParseVisibility folds s into a Visibility. "students-only",
// "Students Only" and "students_only" all map to VisibilityStudentsOnly.
func ParseVisibility(s string) (Visibility, bool) {
	switch fold(s) {
	case "PUBLIC":
		return VisibilityPublic, true
	case "STUDENTS_ONLY":
		return VisibilityStudentsOnly, true
	case "PRIVATE":
		return VisibilityPrivate, true
	}
	return VisibilityUnknown, false
}

func (v Visibility) String() string { return string(v) }

func (v *Visibility) UnmarshalJSON(b []byte) error {
	raw, err := decodeEnum(b)
	if err != nil {
		return err
	}
	*v, _ = ParseVisibility(raw)
	return nil
}

// fold upper-cases s, trims it, and turns '-' and ' ' into '_'.
func fold(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	return strings.NewReplacer("-", "_", " ", "_").Replace(s)
}

// decodeEnum accepts a JSON string or null. Anything else is an error.
func decodeEnum(b []byte) (string, error) {
	if string(b) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return "", err
	}
	return s, nil
}
