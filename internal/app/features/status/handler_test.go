package status_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	uierrors "github.com/dalemusser/campuscard/internal/app/features/errors"
	"github.com/dalemusser/campuscard/internal/app/features/status"
	"github.com/dalemusser/campuscard/internal/app/store/audit"
	"github.com/dalemusser/campuscard/internal/app/system/auditlog"
	"github.com/dalemusser/campuscard/internal/app/system/auth"
	"github.com/dalemusser/campuscard/internal/domain/models"
	"github.com/dalemusser/campuscard/internal/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fixture struct {
	handler  *status.Handler
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
	lc := auth.NewLogoutCoordinator(sm, nil, logger)

	h := status.NewHandler(
		testutil.NewAPIClient(t, api),
		sm,
		auditlog.New(nil, zap.New(core), auditlog.Config{Auth: auditlog.ModeLog}),
		uierrors.NewErrorLogger(logger, lc.HandleUnauthorized),
		logger,
	)
	return &fixture{handler: h, api: api, sessions: sm, seed: testutil.SeedUsers(api), logs: logs}
}

type view struct {
	Status    models.Status `json:"status"`
	Role      models.Role   `json:"role"`
	Refreshed bool          `json:"refreshed"`
	Changed   bool          `json:"changed"`
	Next      string        `json:"next"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) view {
	t.Helper()
	var v view
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestServeStatus_Unchanged(t *testing.T) {
	f := newTestHandler(t)
	s := testutil.SessionFor(f.api, f.seed.Pending)

	rec := httptest.NewRecorder()
	f.handler.ServeStatus(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/status", s))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	v := decode(t, rec)
	if v.Status != models.StatusPending || !v.Refreshed || v.Changed {
		t.Errorf("view = %+v", v)
	}
	if v.Next != "/status" {
		t.Errorf("next = %q", v.Next)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Error("an unchanged status should not rewrite the session")
	}
}

func TestServeStatus_ApprovalIsPickedUp(t *testing.T) {
	f := newTestHandler(t)
	s := testutil.SessionFor(f.api, f.seed.Pending)
	f.api.SetStatus(f.seed.Pending, models.StatusApproved)

	rec := httptest.NewRecorder()
	f.handler.ServeStatus(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/status", s))

	v := decode(t, rec)
	if v.Status != models.StatusApproved || !v.Changed || v.Next != "/me" {
		t.Errorf("view = %+v", v)
	}
	stored := testutil.SessionFromResponse(t, f.sessions, rec)
	if stored == nil || stored.Status != models.StatusApproved || stored.Token != s.Token {
		t.Errorf("stored session = %+v", stored)
	}

	entries := f.logs.FilterMessage("audit event").All()
	if len(entries) != 1 || entries[0].ContextMap()["event_type"] != audit.EventSessionStatusRefreshed {
		t.Fatalf("audit entries = %v", entries)
	}
	if entries[0].ContextMap()["detail_to_status"] != string(models.StatusApproved) {
		t.Errorf("to_status = %v", entries[0].ContextMap()["detail_to_status"])
	}
}

func TestServeStatus_ExpiredTokenEndsSession(t *testing.T) {
	f := newTestHandler(t)
	s := testutil.SessionFor(f.api, f.seed.Pending)
	f.api.ExpireToken(s.Token)

	rec := testutil.NewRecorder()
	f.handler.ServeStatus(rec.ResponseRecorder, testutil.WithSession(testutil.NewRequest(http.MethodGet, "/status"), s))

	rec.AssertRedirect(t, "/login")
	if !f.sessions.IsRevoked(s.Token) {
		t.Error("token should be revoked after a 401")
	}
}

func TestServeStatus_APIDownFallsBackToSession(t *testing.T) {
	f := newTestHandler(t)
	s := testutil.SessionFor(f.api, f.seed.Pending)
	f.api.Force("GET /api/profile", http.StatusServiceUnavailable, `{"message":"down"}`)

	rec := httptest.NewRecorder()
	f.handler.ServeStatus(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/status", s))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	v := decode(t, rec)
	if v.Refreshed || v.Status != models.StatusPending {
		t.Errorf("view = %+v", v)
	}
}

func TestServeStatus_NoSession(t *testing.T) {
	f := newTestHandler(t)
	rec := testutil.NewRecorder()

	f.handler.ServeStatus(rec.ResponseRecorder, testutil.NewAPIRequest(http.MethodGet, "/status"))

	rec.AssertStatus(t, http.StatusUnauthorized)
	if f.api.CallCount("GET /api/profile") != 0 {
		t.Error("no API call without a session")
	}
}
