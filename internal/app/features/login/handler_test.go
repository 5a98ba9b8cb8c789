package login_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	uierrors "github.com/dalemusser/campuscard/internal/app/features/errors"
	"github.com/dalemusser/campuscard/internal/app/features/login"
	"github.com/dalemusser/campuscard/internal/app/store/audit"
	"github.com/dalemusser/campuscard/internal/app/system/auditlog"
	"github.com/dalemusser/campuscard/internal/app/system/auth"
	"github.com/dalemusser/campuscard/internal/app/system/ratelimit"
	"github.com/dalemusser/campuscard/internal/domain/models"
	"github.com/dalemusser/campuscard/internal/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fixture struct {
	handler  *login.Handler
	api      *testutil.FakeAPI
	sessions *auth.SessionManager
	seed     testutil.Seed
	logs     *observer.ObservedLogs
}

func newTestHandler(t *testing.T) *fixture {
	t.Helper()
	api := testutil.NewFakeAPI(t)
	sm := testutil.NewSessionManager(t)
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.NewNop()

	h := login.NewHandler(
		testutil.NewAPIClient(t, api),
		sm,
		ratelimit.NewLoginLimiterWithConfig(100, time.Minute, 3, time.Minute),
		auditlog.New(nil, zap.New(core), auditlog.Config{Auth: auditlog.ModeLog}),
		uierrors.NewErrorLogger(logger, nil),
		logger,
	)
	return &fixture{handler: h, api: api, sessions: sm, seed: testutil.SeedUsers(api), logs: logs}
}

func loginForm(identifier, password string) url.Values {
	return url.Values{"identifier": {identifier}, "password": {password}}
}

func postForm(form url.Values, accept string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", accept)
	return req
}

func auditEvents(logs *observer.ObservedLogs, eventType string) int {
	n := 0
	for _, e := range logs.FilterMessage("audit event").All() {
		if e.ContextMap()["event_type"] == eventType {
			n++
		}
	}
	return n
}

func TestHandleLoginPost_Landing(t *testing.T) {
	tests := []struct {
		name       string
		identifier string
		wantTarget string
		wantStatus models.Status
	}{
		{"admin lands on moderation", "admin@campus.edu", "/admin/users", models.StatusApproved},
		{"approved student lands on own profile", "sam@campus.edu", "/me", models.StatusApproved},
		{"pending student lands on status", "pat@campus.edu", "/status", models.StatusPending},
		{"national id works as identifier", "29901011234567", "/me", models.StatusApproved},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTestHandler(t)
			rec := httptest.NewRecorder()
			f.handler.HandleLoginPost(rec, postForm(loginForm(tt.identifier, f.seed.Password), "text/html"))

			if rec.Code != http.StatusSeeOther {
				t.Fatalf("status = %d, want 303 (body %q)", rec.Code, rec.Body.String())
			}
			if loc := rec.Header().Get("Location"); loc != tt.wantTarget {
				t.Errorf("Location = %q, want %q", loc, tt.wantTarget)
			}

			s := testutil.SessionFromResponse(t, f.sessions, rec)
			if s == nil {
				t.Fatal("expected a session cookie")
			}
			if s.Token == "" || s.Status != tt.wantStatus {
				t.Errorf("session = %+v", s)
			}
			if auditEvents(f.logs, audit.EventLoginSuccess) != 1 {
				t.Error("expected one login_success audit event")
			}
		})
	}
}

func TestHandleLoginPost_JSONBody(t *testing.T) {
	f := newTestHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/login",
		strings.NewReader(`{"identifier":"admin@campus.edu","password":"`+f.seed.Password+`"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()

	f.handler.HandleLoginPost(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (body %q)", rec.Code, rec.Body.String())
	}
	var body struct {
		Redirect string `json:"redirect"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Redirect != login.AdminLanding {
		t.Errorf("redirect = %q", body.Redirect)
	}
	s := testutil.SessionFromResponse(t, f.sessions, rec)
	if s == nil || s.Role != models.RoleAdmin {
		t.Errorf("session = %+v, want admin", s)
	}
}

func TestHandleLoginPost_WithReturnURL(t *testing.T) {
	f := newTestHandler(t)
	form := loginForm("sam@campus.edu", f.seed.Password)
	form.Set("return", "/profile/104")
	rec := httptest.NewRecorder()

	f.handler.HandleLoginPost(rec, postForm(form, "text/html"))

	if loc := rec.Header().Get("Location"); loc != "/profile/104" {
		t.Errorf("Location = %q, want /profile/104", loc)
	}
}

func TestHandleLoginPost_ReturnURLIgnoredForPending(t *testing.T) {
	f := newTestHandler(t)
	form := loginForm("pat@campus.edu", f.seed.Password)
	form.Set("return", "/me")
	rec := httptest.NewRecorder()

	f.handler.HandleLoginPost(rec, postForm(form, "text/html"))

	if loc := rec.Header().Get("Location"); loc != "/status" {
		t.Errorf("Location = %q, want /status", loc)
	}
}

func TestHandleLoginPost_RejectsOffsiteReturn(t *testing.T) {
	f := newTestHandler(t)
	form := loginForm("sam@campus.edu", f.seed.Password)
	form.Set("return", "https://evil.example.com/")
	rec := httptest.NewRecorder()

	f.handler.HandleLoginPost(rec, postForm(form, "text/html"))

	if loc := rec.Header().Get("Location"); loc != "/me" {
		t.Errorf("Location = %q, want /me", loc)
	}
}

func TestHandleLoginPost_BadPassword(t *testing.T) {
	f := newTestHandler(t)
	rec := testutil.NewRecorder()

	f.handler.HandleLoginPost(rec.ResponseRecorder, postForm(loginForm("sam@campus.edu", "wrong"), "application/json"))

	rec.AssertStatus(t, http.StatusUnauthorized)
	rec.AssertContains(t, uierrors.KindInvalidCredentials)
	if testutil.SessionFromResponse(t, f.sessions, rec.ResponseRecorder) != nil {
		t.Error("no session should be stored after a failed login")
	}
	if auditEvents(f.logs, audit.EventLoginFailedCredentials) != 1 {
		t.Error("expected a login_failed_invalid_credentials audit event")
	}
}

func TestHandleLoginPost_ValidationFailsBeforeAPI(t *testing.T) {
	tests := []struct {
		name  string
		form  url.Values
		field string
	}{
		{"missing identifier", loginForm("", "pw"), "identifier"},
		{"missing password", loginForm("sam@campus.edu", ""), "password"},
		{"malformed email", loginForm("sam@", "pw"), "identifier"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTestHandler(t)
			rec := testutil.NewRecorder()

			f.handler.HandleLoginPost(rec.ResponseRecorder, postForm(tt.form, "application/json"))

			rec.AssertStatus(t, http.StatusBadRequest)
			rec.AssertContains(t, `"`+tt.field+`"`)
			if n := f.api.CallCount("POST /api/login"); n != 0 {
				t.Errorf("API called %d times, want 0", n)
			}
		})
	}
}

func TestHandleLoginPost_APIUnavailable(t *testing.T) {
	f := newTestHandler(t)
	f.api.Force("POST /api/login", http.StatusServiceUnavailable, `{"message":"maintenance"}`)
	rec := testutil.NewRecorder()

	f.handler.HandleLoginPost(rec.ResponseRecorder, postForm(loginForm("sam@campus.edu", f.seed.Password), "application/json"))

	rec.AssertStatus(t, http.StatusBadGateway)
	if auditEvents(f.logs, audit.EventLoginFailedUnavailable) != 1 {
		t.Error("expected a login_failed_unavailable audit event")
	}
}

func TestHandleLoginPost_RateLimited(t *testing.T) {
	f := newTestHandler(t)

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		f.handler.HandleLoginPost(rec, postForm(loginForm("sam@campus.edu", "wrong"), "application/json"))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: status = %d, want 401", i+1, rec.Code)
		}
		if got, want := rec.Header().Get("X-RateLimit-Remaining"), strconv.Itoa(2-i); got != want {
			t.Errorf("attempt %d: X-RateLimit-Remaining = %q, want %q", i+1, got, want)
		}
	}

	rec := testutil.NewRecorder()
	f.handler.HandleLoginPost(rec.ResponseRecorder, postForm(loginForm("SAM@campus.edu", f.seed.Password), "application/json"))

	rec.AssertStatus(t, http.StatusTooManyRequests)
	rec.AssertContains(t, uierrors.KindRateLimited)
	if got := rec.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Errorf("X-RateLimit-Remaining = %q, want 0", got)
	}
	if got := f.api.CallCount("POST /api/login"); got != 3 {
		t.Errorf("API login calls = %d, want 3", got)
	}
	if auditEvents(f.logs, audit.EventLoginFailedRateLimit) != 1 {
		t.Error("expected a rate limit audit event")
	}
}

func TestServeLogin(t *testing.T) {
	f := newTestHandler(t)

	t.Run("anonymous gets form state", func(t *testing.T) {
		rec := testutil.NewRecorder()
		f.handler.ServeLogin(rec.ResponseRecorder, testutil.NewAPIRequest(http.MethodGet, "/login?return=/profile/5"))
		rec.AssertStatus(t, http.StatusOK)
		rec.AssertContains(t, `"authenticated":false`)
		rec.AssertContains(t, `"returnUrl":"/profile/5"`)
	})

	t.Run("signed-in page navigation skips the form", func(t *testing.T) {
		rec := testutil.NewRecorder()
		req := testutil.WithSession(testutil.NewRequest(http.MethodGet, "/login"), testutil.PendingSession())
		f.handler.ServeLogin(rec.ResponseRecorder, req)
		rec.AssertRedirect(t, "/status")
	})

	t.Run("signed-in API caller gets landing", func(t *testing.T) {
		rec := testutil.NewRecorder()
		f.handler.ServeLogin(rec.ResponseRecorder, testutil.NewAuthenticatedRequest(http.MethodGet, "/login", testutil.AdminSession()))
		rec.AssertStatus(t, http.StatusOK)
		rec.AssertContains(t, `"landing":"/admin/users"`)
	})
}

func TestLanding(t *testing.T) {
	if got := login.Landing(testutil.AdminSession()); got != "/admin/users" {
		t.Errorf("admin landing = %q", got)
	}
	// An admin whose own account is still pending is still an admin.
	a := testutil.AdminSession()
	a.Status = models.StatusPending
	if got := login.Landing(a); got != "/admin/users" {
		t.Errorf("pending admin landing = %q", got)
	}
	if got := login.Landing(testutil.StudentSession()); got != "/me" {
		t.Errorf("student landing = %q", got)
	}
	if got := login.Landing(testutil.PendingSession()); got != "/status" {
		t.Errorf("pending landing = %q", got)
	}
}

func TestHandleLoginPost_ReissuedTokenAfterLogout(t *testing.T) {
	f := newTestHandler(t)
	const token = "reissued-token"
	f.api.Force("POST /api/login", http.StatusOK,
		`{"token":"`+token+`","id":"102","email":"sam@campus.edu","role":"student","status":"APPROVED"}`)

	// An earlier session with this token was logged out.
	f.sessions.Revoke(token)

	rec := httptest.NewRecorder()
	f.handler.HandleLoginPost(rec, postForm(loginForm("sam@campus.edu", f.seed.Password), "application/json"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (body %q)", rec.Code, rec.Body.String())
	}

	s := testutil.SessionFromResponse(t, f.sessions, rec)
	if s == nil || s.Token != token {
		t.Fatalf("session after re-login = %+v, want token %q", s, token)
	}
	if f.sessions.IsRevoked(token) {
		t.Error("token still revoked after a successful login")
	}
}
