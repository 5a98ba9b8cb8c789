package validators_test

import (
	"testing"
	"time"

	"github.com/dalemusser/campuscard/internal/app/store/audit"
	"github.com/dalemusser/campuscard/internal/app/system/validators"
	"github.com/dalemusser/campuscard/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
)

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for i := 0; i < 2; i++ {
		if err := validators.EnsureAll(ctx, db); err != nil {
			t.Fatalf("EnsureAll #%d failed: %v", i+1, err)
		}
	}

	names, err := db.ListCollectionNames(ctx, bson.M{"name": audit.CollectionName})
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 1 {
		t.Errorf("collection %q not created", audit.CollectionName)
	}
}

func TestAuditEventsValidator(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	coll := db.Collection(audit.CollectionName)
	now := time.Now().UTC()

	tests := []struct {
		name    string
		doc     bson.M
		wantErr bool
	}{
		{
			name: "valid",
			doc:  bson.M{"_id": "e1", "timestamp": now, "category": "auth", "event_type": "logout", "success": true},
		},
		{
			name:    "missing event type",
			doc:     bson.M{"_id": "e2", "timestamp": now, "category": "auth", "success": true},
			wantErr: true,
		},
		{
			name:    "unknown category",
			doc:     bson.M{"_id": "e3", "timestamp": now, "category": "billing", "event_type": "x", "success": true},
			wantErr: true,
		},
		{
			name:    "timestamp as string",
			doc:     bson.M{"_id": "e4", "timestamp": "yesterday", "category": "admin", "event_type": "x", "success": false},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := coll.InsertOne(ctx, tt.doc)
			if (err != nil) != tt.wantErr {
				t.Errorf("InsertOne err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAuditStoreWritesPassValidation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	store := audit.New(db)
	err := store.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventUserApproved,
		UserID:    "7",
		ActorID:   "1",
		Success:   true,
		Details:   map[string]string{"from_status": "PENDING"},
	})
	if err != nil {
		t.Fatalf("Log rejected by validator: %v", err)
	}
}
