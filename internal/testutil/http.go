package testutil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/dalemusser/campuscard/internal/app/system/auth"
	"github.com/dalemusser/campuscard/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// AdminSession returns an approved administrator session.
func AdminSession() *auth.Session {
	return &auth.Session{
		Token:  "admin-token",
		UserID: "1",
		Email:  "admin@campus.edu",
		Role:   models.RoleAdmin,
		Status: models.StatusApproved,
	}
}

// StudentSession returns an approved student session.
func StudentSession() *auth.Session {
	return &auth.Session{
		Token:  "student-token",
		UserID: "2",
		Email:  "student@campus.edu",
		Role:   models.RoleStudent,
		Status: models.StatusApproved,
	}
}

// PendingSession returns a student session still awaiting moderation.
func PendingSession() *auth.Session {
	s := StudentSession()
	s.Token = "pending-token"
	s.UserID = "3"
	s.Status = models.StatusPending
	return s
}

// WithSession puts s into the request context, bypassing the cookie.
func WithSession(r *http.Request, s *auth.Session) *http.Request {
	return auth.WithSession(r, s)
}

// WithChiURLParam adds a chi URL parameter to the request context.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// NewRequest creates a page-navigation request (Accept: text/html).
func NewRequest(method, target string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set("Accept", "text/html")
	return req
}

// NewAPIRequest creates a request that accepts JSON.
func NewAPIRequest(method, target string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set("Accept", "application/json")
	return req
}

// NewFormRequest creates a url-encoded form POST.
func NewFormRequest(target string, form string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	return req
}

// NewAuthenticatedRequest creates a request with s in context.
func NewAuthenticatedRequest(method, target string, s *auth.Session) *http.Request {
	return WithSession(NewAPIRequest(method, target), s)
}

// ResponseRecorder wraps httptest.ResponseRecorder with helper methods.
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

// NewRecorder creates a new ResponseRecorder.
func NewRecorder() *ResponseRecorder {
	return &ResponseRecorder{httptest.NewRecorder()}
}

// AssertStatus checks the response status code.
func (r *ResponseRecorder) AssertStatus(t interface{ Errorf(string, ...any) }, expected int) {
	if r.Code != expected {
		t.Errorf("status code: got %d, want %d (body %q)", r.Code, expected, r.Body.String())
	}
}

// AssertRedirect checks for a redirect to the expected location.
func (r *ResponseRecorder) AssertRedirect(t interface{ Errorf(string, ...any) }, expectedLocation string) {
	if r.Code != http.StatusSeeOther && r.Code != http.StatusFound {
		t.Errorf("expected redirect status, got %d", r.Code)
	}
	if location := r.Header().Get("Location"); location != expectedLocation {
		t.Errorf("redirect location: got %q, want %q", location, expectedLocation)
	}
}

// AssertContains checks if the response body contains the expected string.
func (r *ResponseRecorder) AssertContains(t interface{ Errorf(string, ...any) }, expected string) {
	if !strings.Contains(r.Body.String(), expected) {
		t.Errorf("response body %q does not contain %q", r.Body.String(), expected)
	}
}

// AssertNotContains checks the response body does not contain s.
func (r *ResponseRecorder) AssertNotContains(t interface{ Errorf(string, ...any) }, s string) {
	if strings.Contains(r.Body.String(), s) {
		t.Errorf("response body unexpectedly contains %q", s)
	}
}
