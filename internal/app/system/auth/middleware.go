package auth

import (
	"context"
	"net/http"
)

type ctxKey string

const currentSessionKey ctxKey = "currentSession"

// LoadSession reads the slot and, when a valid session is present, puts
// it into the request context. The slot is re-read on every request.
func (m *SessionManager) LoadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s := m.Load(r); s != nil {
			r = WithSession(r, s)
		}
		next.ServeHTTP(w, r)
	})
}

// CurrentSession returns the session loaded for r and whether there is one.
func CurrentSession(r *http.Request) (*Session, bool) {
	s, ok := r.Context().Value(currentSessionKey).(*Session)
	return s, ok && s.Authenticated()
}

// WithSession returns a copy of r carrying s. Handlers that rewrite the
// slot mid-request use it so later middleware sees the new value. Tests
// use it to bypass the cookie.
func WithSession(r *http.Request, s *Session) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentSessionKey, s))
}
