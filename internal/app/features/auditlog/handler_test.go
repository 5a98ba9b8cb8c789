package auditlog_test

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/campuscard/internal/app/features/auditlog"
	uierrors "github.com/dalemusser/campuscard/internal/app/features/errors"
	"github.com/dalemusser/campuscard/internal/app/store/audit"
	"github.com/dalemusser/campuscard/internal/app/system/indexes"
	"github.com/dalemusser/campuscard/internal/testutil"
	"go.uber.org/zap"
)

type listResponse struct {
	Items []struct {
		EventType string `json:"eventType"`
		UserID    string `json:"userId"`
		ActorID   string `json:"actorId"`
	} `json:"items"`
	Page       int   `json:"page"`
	TotalPages int   `json:"totalPages"`
	Total      int64 `json:"total"`
	HasNext    bool  `json:"hasNext"`
	Categories []struct {
		Value string `json:"value"`
	} `json:"categories"`
}

func newHandler(t *testing.T) (*auditlog.Handler, *audit.Store) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db, 0); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}
	logger := zap.NewNop()
	return auditlog.NewHandler(store, uierrors.NewErrorLogger(logger, nil), logger), store
}

func seedEvents(t *testing.T, store *audit.Store) {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	events := []audit.Event{
		{Category: audit.CategoryAuth, EventType: audit.EventLoginSuccess, UserID: "2", Success: true, Timestamp: base},
		{Category: audit.CategoryAdmin, EventType: audit.EventUserApproved, UserID: "3", ActorID: "1", Success: true, Timestamp: base.Add(time.Hour)},
		{Category: audit.CategoryAdmin, EventType: audit.EventUserRejected, UserID: "4", ActorID: "1", Success: true, Timestamp: base.Add(48 * time.Hour)},
	}
	for _, e := range events {
		if err := store.Log(ctx, e); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}
}

func decode(t *testing.T, rec *testutil.ResponseRecorder) listResponse {
	t.Helper()
	var out listResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v (body %q)", err, rec.Body.String())
	}
	return out
}

func TestServeList_All(t *testing.T) {
	h, store := newHandler(t)
	seedEvents(t, store)

	rec := testutil.NewRecorder()
	h.ServeList(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/admin/audit", testutil.AdminSession()))
	rec.AssertStatus(t, http.StatusOK)

	out := decode(t, rec)
	if out.Total != 3 || len(out.Items) != 3 {
		t.Fatalf("total=%d items=%d, want 3", out.Total, len(out.Items))
	}
	// Newest first.
	if out.Items[0].EventType != audit.EventUserRejected {
		t.Errorf("first item = %q, want newest", out.Items[0].EventType)
	}
	if out.Page != 1 || out.TotalPages != 1 || out.HasNext {
		t.Errorf("paging = %+v", out)
	}
	if len(out.Categories) != 2 {
		t.Errorf("categories = %+v", out.Categories)
	}
}

func TestServeList_Filters(t *testing.T) {
	h, store := newHandler(t)
	seedEvents(t, store)

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"category", "?category=admin", 2},
		{"event type", "?event_type=login_success", 1},
		{"user", "?user=3", 1},
		{"actor", "?actor=1", 2},
		{"start date", "?start_date=2026-03-11", 1},
		{"end date inclusive", "?end_date=2026-03-10", 2},
		{"bad date ignored", "?start_date=yesterday", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			h.ServeList(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/admin/audit"+tt.query, testutil.AdminSession()))
			rec.AssertStatus(t, http.StatusOK)
			if out := decode(t, rec); out.Total != int64(tt.want) || len(out.Items) != tt.want {
				t.Errorf("total=%d items=%d, want %d", out.Total, len(out.Items), tt.want)
			}
		})
	}
}

func TestServeList_EmptyPageBeyondEnd(t *testing.T) {
	h, store := newHandler(t)
	seedEvents(t, store)

	rec := testutil.NewRecorder()
	h.ServeList(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/admin/audit?page=4", testutil.AdminSession()))
	rec.AssertStatus(t, http.StatusOK)

	out := decode(t, rec)
	if len(out.Items) != 0 || out.Total != 3 || out.Page != 4 {
		t.Errorf("out = %+v", out)
	}
	// Items is an array, never null.
	rec.AssertContains(t, `"items":[]`)
}
