package auditlog_test

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/campuscard/internal/app/store/audit"
	"github.com/dalemusser/campuscard/internal/app/system/auditlog"
	"github.com/dalemusser/campuscard/internal/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_NilLogger(t *testing.T) {
	var logger *auditlog.Logger
	ctx, cancel := testutil.TestContext()
	defer cancel()
	req := httptest.NewRequest("GET", "/", nil)

	logger.Log(ctx, audit.Event{EventType: "test"})
	logger.LoginSuccess(ctx, req, "1", "a@b.edu")
	logger.Logout(ctx, req, "1", "user_logout")
}

func TestLogger_LogOnlyWritesToZap(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(nil, zap.New(core), auditlog.Config{Auth: "log", Admin: "off"})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.1, 172.16.0.1")
	logger.Logout(ctx, req, "7", "unauthorized")
	logger.Transition(ctx, req, audit.EventUserApproved, "1", "7", nil, nil)

	entries := logs.FilterMessage("audit event").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 audit entry (admin is off), got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["event_type"] != audit.EventLogout || fields["detail_reason"] != "unauthorized" {
		t.Errorf("fields = %v", fields)
	}
	if fields["ip"] != "10.0.0.1" {
		t.Errorf("ip = %v, want first forwarded address", fields["ip"])
	}
}

func TestLogger_FailureIsWarn(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(nil, zap.New(core), auditlog.Config{Admin: "log"})
	logger.Transition(ctx, nil, audit.EventUserRejected, "1", "7", nil, errors.New("already rejected"))

	entries := logs.All()
	if len(entries) != 1 || entries[0].Level != zapcore.WarnLevel {
		t.Fatalf("entries = %+v", entries)
	}
	if entries[0].ContextMap()["failure_reason"] != "already rejected" {
		t.Errorf("failure_reason = %v", entries[0].ContextMap()["failure_reason"])
	}
}

func TestValidMode(t *testing.T) {
	for _, m := range []string{"all", "DB", " log ", "off"} {
		if !auditlog.ValidMode(m) {
			t.Errorf("ValidMode(%q) = false", m)
		}
	}
	if auditlog.ValidMode("sometimes") {
		t.Error("ValidMode(sometimes) = true")
	}
}

func TestLogger_Log_ConfigOff(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: "off", Admin: "off"})
	logger.LoginSuccess(ctx, httptest.NewRequest("GET", "/", nil), "101", "a@b.edu")

	events, err := store.GetByUser(ctx, "101", 10)
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if len(events) != 0 {
		t.Error("expected no events when config is 'off'")
	}
}

func TestLogger_LoginFailed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: "db"})
	logger.LoginFailed(ctx, httptest.NewRequest("POST", "/login", nil), "nobody@campus.edu", true, "invalid credentials")

	events, err := store.GetRecent(ctx, 10)
	if err != nil {
		t.Fatalf("GetRecent failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	e := events[0]
	if e.EventType != audit.EventLoginFailedCredentials || e.Success {
		t.Errorf("event = %+v", e)
	}
	if e.Details["attempted_identifier"] != "nobody@campus.edu" {
		t.Errorf("Details = %v", e.Details)
	}
}

func TestLogger_Transition_DB(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Admin: "all"})
	logger.Transition(ctx, nil, audit.EventRoleChanged, "1", "101", map[string]string{"role": "ADMIN"}, nil)

	events, err := store.Query(ctx, audit.QueryFilter{ActorID: "1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].UserID != "101" || events[0].Details["role"] != "ADMIN" {
		t.Errorf("events = %+v", events)
	}
}
