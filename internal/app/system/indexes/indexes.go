// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/campuscard/internal/app/store/audit"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// ttlPrefix names the retention index; the suffix is the retention in days.
const ttlPrefix = "idx_audit_ttl_"

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
Errors are aggregated so every problem is visible and startup can fail fast.

retention bounds how long audit events are kept; zero keeps them forever
and removes a retention index left by an earlier configuration.
*/
func EnsureAll(ctx context.Context, db *mongo.Database, retention time.Duration) error {
	var problems []string

	if err := ensureAuditEvents(ctx, db, retention); err != nil {
		problems = append(problems, audit.CollectionName+": "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name               string `bson:"name"`
	Key                bson.D `bson:"key"`
	Unique             *bool  `bson:"unique,omitempty"`
	ExpireAfterSeconds *int32 `bson:"expireAfterSeconds,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func sameBoolPtr(a, b *bool) bool {
	return (a != nil && *a) == (b != nil && *b)
}

func sameInt32Ptr(a, b *int32) bool {
	switch {
	case a == nil || b == nil:
		return a == nil && b == nil
	}
	return *a == *b
}

// listIndexes returns the collection's indexes keyed by key signature.
func listIndexes(ctx context.Context, coll *mongo.Collection) (map[string]existingIndex, error) {
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := map[string]existingIndex{}
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		out[keySig(idx.Key)] = idx
	}
	return out, cur.Err()
}

// ensureIndexSet creates each desired index. An index with the same keys
// but a different name or options is dropped and recreated.
func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	existing, err := listIndexes(ctx, coll)
	if err != nil {
		// A collection that does not exist yet has no indexes.
		existing = map[string]existingIndex{}
	}

	var errs []string
	for _, m := range models {
		var (
			name   string
			unique *bool
			ttl    *int32
		)
		if m.Options != nil {
			if m.Options.Name != nil {
				name = *m.Options.Name
			}
			unique = m.Options.Unique
			ttl = m.Options.ExpireAfterSeconds
		}
		sig := keySig(m.Keys.(bson.D))
		start := time.Now()
		fields := []zap.Field{
			zap.String("collection", coll.Name()),
			zap.String("name", name),
			zap.String("keys", sig),
		}

		if ex, ok := existing[sig]; ok {
			if sameBoolPtr(unique, ex.Unique) && sameInt32Ptr(ttl, ex.ExpireAfterSeconds) && (name == "" || name == ex.Name) {
				zap.L().Debug("reusing existing index", fields...)
				continue
			}
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				zap.L().Warn("drop existing index failed", append(fields, zap.Error(err))...)
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), name, err))
				continue
			}
			zap.L().Info("dropped index to realign name or options", append(fields, zap.String("from", ex.Name))...)
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			zap.L().Warn("index ensure failed", append(fields, zap.Error(err))...)
			errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), name, err))
			continue
		}
		zap.L().Info("index ensured", append(fields, zap.String("took", time.Since(start).String()))...)
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                              */
/* -------------------------------------------------------------------------- */

func ensureAuditEvents(ctx context.Context, db *mongo.Database, retention time.Duration) error {
	c := db.Collection(audit.CollectionName)
	models := audit.IndexModels()

	if retention <= 0 {
		if err := ensureIndexSet(ctx, c, models); err != nil {
			return err
		}
		return dropRetention(ctx, c)
	}

	days := int32(retention / (24 * time.Hour))
	if days < 1 {
		days = 1
	}
	models = append(models, mongo.IndexModel{
		Keys: bson.D{{Key: "timestamp", Value: 1}},
		Options: options.Index().
			SetExpireAfterSeconds(days * 24 * 60 * 60).
			SetName(fmt.Sprintf("%s%dd", ttlPrefix, days)),
	})
	return ensureIndexSet(ctx, c, models)
}

// dropRetention removes a retention index from an earlier configuration.
func dropRetention(ctx context.Context, c *mongo.Collection) error {
	existing, err := listIndexes(ctx, c)
	if err != nil {
		return nil
	}
	for _, idx := range existing {
		if !strings.HasPrefix(idx.Name, ttlPrefix) {
			continue
		}
		if _, err := c.Indexes().DropOne(ctx, idx.Name); err != nil {
			return fmt.Errorf("drop %s: %w", idx.Name, err)
		}
		zap.L().Info("dropped audit retention index", zap.String("name", idx.Name))
	}
	return nil
}
