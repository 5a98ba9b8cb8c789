package logout_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/campuscard/internal/app/features/logout"
	"github.com/dalemusser/campuscard/internal/app/store/audit"
	"github.com/dalemusser/campuscard/internal/app/system/auditlog"
	"github.com/dalemusser/campuscard/internal/app/system/auth"
	"github.com/dalemusser/campuscard/internal/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newTestHandler(t *testing.T) (*logout.Handler, *auth.SessionManager, *observer.ObservedLogs) {
	t.Helper()
	sm := testutil.NewSessionManager(t)
	core, logs := observer.New(zapcore.InfoLevel)
	hook := logout.AuditHook(auditlog.New(nil, zap.New(core), auditlog.Config{Auth: auditlog.ModeLog}))
	lc := auth.NewLogoutCoordinator(sm, hook, zap.NewNop())
	return logout.NewHandler(lc, zap.NewNop()), sm, logs
}

func TestServeLogout_RedirectsToHome(t *testing.T) {
	handler, _, _ := newTestHandler(t)

	req := testutil.WithSession(testutil.NewRequest(http.MethodGet, "/logout"), testutil.StudentSession())
	rec := testutil.NewRecorder()

	handler.ServeLogout(rec.ResponseRecorder, req)

	rec.AssertRedirect(t, "/")
}

func TestServeLogout_APICaller(t *testing.T) {
	handler, _, _ := newTestHandler(t)

	rec := testutil.NewRecorder()
	handler.ServeLogout(rec.ResponseRecorder, testutil.NewAuthenticatedRequest(http.MethodPost, "/logout", testutil.StudentSession()))

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"redirect":"/"`)
}

func TestServeLogout_ClearsSessionAndRevokesToken(t *testing.T) {
	handler, sm, logs := newTestHandler(t)
	s := testutil.StudentSession()

	req := testutil.WithSession(testutil.NewRequest(http.MethodGet, "/logout"), s)
	rec := httptest.NewRecorder()
	handler.ServeLogout(rec, req)

	found := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == testutil.SessionCookieName {
			found = true
			if c.MaxAge >= 0 {
				t.Errorf("cookie MaxAge = %d, want negative (deleted)", c.MaxAge)
			}
		}
	}
	if !found {
		t.Error("expected a deletion cookie")
	}
	if !sm.IsRevoked(s.Token) {
		t.Error("token should be revoked after logout")
	}

	entries := logs.FilterMessage("audit event").All()
	if len(entries) != 1 {
		t.Fatalf("audit entries = %d, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["event_type"] != audit.EventLogout || fields["detail_reason"] != string(auth.ReasonUserLogout) {
		t.Errorf("fields = %v", fields)
	}
	if fields["user_id"] != s.UserID.String() {
		t.Errorf("user_id = %v", fields["user_id"])
	}
}

func TestServeLogout_SecondLogoutDoesNotAuditAgain(t *testing.T) {
	handler, _, logs := newTestHandler(t)
	s := testutil.StudentSession()

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		handler.ServeLogout(rec, testutil.WithSession(testutil.NewRequest(http.MethodGet, "/logout"), s))
		if rec.Code != http.StatusSeeOther {
			t.Fatalf("logout %d: status = %d", i+1, rec.Code)
		}
	}

	if n := len(logs.FilterMessage("audit event").All()); n != 1 {
		t.Errorf("audit entries = %d, want 1", n)
	}
}
