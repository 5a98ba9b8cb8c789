package auth

import (
	"encoding/json"
	"time"

	"github.com/dalemusser/campuscard/internal/domain/models"
	"github.com/golang-jwt/jwt/v5"
)

// Session is the authenticated-session record kept in the session slot.
// It is written wholesale after login and on status refresh, and removed
// on logout or on any 401 from the API.
type Session struct {
	Token  string        `json:"token"`
	UserID models.ID     `json:"userId"`
	Email  string        `json:"email"`
	Role   models.Role   `json:"role"`
	Status models.Status `json:"status"`
}

// Authenticated reports whether s carries a bearer token.
func (s *Session) Authenticated() bool {
	return s != nil && s.Token != ""
}

// IsAdmin reports whether s belongs to an administrator.
func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == models.RoleAdmin
}

// IsApproved reports whether the account behind s is APPROVED.
func (s *Session) IsApproved() bool {
	return s != nil && s.Status == models.StatusApproved
}

// Expired reports whether the token is a JWT whose exp claim has passed.
// Opaque tokens and JWTs without exp never expire client-side; the API
// remains the authority and answers 401 when they are no longer valid.
func (s *Session) Expired(now time.Time) bool {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(s.Token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !now.Before(claims.ExpiresAt.Time)
}

// encodeSession serializes s for the slot.
func encodeSession(s Session) (string, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// decodeSession parses a stored value. Anything unparsable or token-less
// is no session.
func decodeSession(raw string) *Session {
	if raw == "" {
		return nil
	}
	var s Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil
	}
	if s.Token == "" {
		return nil
	}
	return &s
}
