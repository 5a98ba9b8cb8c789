// Package dircache is a Redis read-through cache for public listings the
// console serves to anonymous visitors: the student directory and the
// faculty list on the signup form.
//
// A nil Redis client disables caching; every read goes to the loader.
// Cache failures are logged and never fail the request.
package dircache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dalemusser/campuscard/internal/app/system/timeouts"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Keys of cached listings, before the prefix.
const (
	DirectoryKey = "directory:public-students"
	FacultiesKey = "signup:faculties"
)

// DepartmentsKey is the key of one faculty's department list. An empty
// facultyID names the full list.
func DepartmentsKey(facultyID string) string {
	if facultyID == "" {
		return "signup:departments"
	}
	return "signup:departments:" + facultyID
}

// DefaultTTL is used when New is given a non-positive ttl.
const DefaultTTL = 60 * time.Second

var (
	ErrCacheNotFound     = errors.New("cache entry not found")
	ErrCacheNotAvailable = errors.New("cache not available")
)

// Cache wraps a Redis client with a key prefix and a fixed TTL.
type Cache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	log    *zap.Logger
	group  singleflight.Group

	// gen counts deletions per key. A fill only stores its result when
	// no deletion happened while it was loading; mu also orders that
	// store against the bump in Delete.
	mu  sync.Mutex
	gen map[string]uint64
}

// New returns a Cache. client may be nil.
func New(client *redis.Client, prefix string, ttl time.Duration, logger *zap.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{client: client, prefix: prefix, ttl: ttl, log: logger, gen: make(map[string]uint64)}
}

// Enabled reports whether a Redis client is configured.
func (c *Cache) Enabled() bool { return c != nil && c.client != nil }

func (c *Cache) key(k string) string { return c.prefix + k }

// Get reads key into dest.
func (c *Cache) Get(ctx context.Context, key string, dest any) error {
	if !c.Enabled() {
		return ErrCacheNotAvailable
	}
	ctx, cancel := context.WithTimeout(ctx, timeouts.Cache())
	defer cancel()

	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheNotFound
		}
		return fmt.Errorf("cache get: %w", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("cache unmarshal: %w", err)
	}
	return nil
}

// Set stores value under key for the cache TTL.
func (c *Cache) Set(ctx context.Context, key string, value any) error {
	if !c.Enabled() {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, timeouts.Cache())
	defer cancel()
	return c.client.Set(ctx, c.key(key), data, c.ttl).Err()
}

// Delete removes keys. A fill of any of them that is still loading will
// not be stored.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if !c.Enabled() || len(keys) == 0 {
		return nil
	}
	c.mu.Lock()
	for _, k := range keys {
		c.gen[k]++
	}
	c.mu.Unlock()

	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.key(k)
	}
	ctx, cancel := context.WithTimeout(ctx, timeouts.Cache())
	defer cancel()
	return c.client.Del(ctx, full...).Err()
}

// Invalidate drops keys, logging instead of failing.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if err := c.Delete(ctx, keys...); err != nil {
		c.log.Warn("cache invalidate failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

// Ping checks the Redis connection. A disabled cache pings fine.
func (c *Cache) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Ping(ctx).Err()
}

// Fetch returns the cached value of key, or calls load, caches its result
// and returns it. Concurrent misses for one key share a single load, which
// runs detached from the cancellation of whichever caller started it.
func Fetch[T any](ctx context.Context, c *Cache, key string, load func(context.Context) (T, error)) (T, error) {
	var cached T
	err := c.Get(ctx, key, &cached)
	switch {
	case err == nil:
		return cached, nil
	case errors.Is(err, ErrCacheNotFound), errors.Is(err, ErrCacheNotAvailable):
	default:
		c.log.Warn("cache read failed, loading", zap.String("key", key), zap.Error(err))
	}

	if !c.Enabled() {
		return load(ctx)
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		fillCtx, cancel := timeouts.WithTimeout(context.WithoutCancel(ctx), timeouts.Read(), c.log, "cache fill "+key)
		defer cancel()

		gen := c.generation(key)
		fresh, err := load(fillCtx)
		if err != nil {
			return fresh, err
		}
		c.store(fillCtx, key, gen, fresh)
		return fresh, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

func (c *Cache) generation(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen[key]
}

// store writes a fill result unless key was deleted since gen was read.
func (c *Cache) store(ctx context.Context, key string, gen uint64, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen[key] != gen {
		c.log.Debug("cache fill superseded by invalidation", zap.String("key", key))
		return
	}
	if err := c.Set(ctx, key, value); err != nil {
		c.log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}
