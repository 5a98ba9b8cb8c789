// Package timeouts holds the per-operation deadlines applied to calls the
// console makes on behalf of a request: CampusCard API calls, cache
// lookups and backend pings.
//
// Tiers:
//   - Ping: health checks against Mongo and Redis
//   - Cache: a single Redis get or set
//   - Read: API reads (profile, user lists, stats, status refresh)
//   - Write: API mutations (login, lifecycle transitions)
//   - Upload: signup forwarding, which carries files
package timeouts

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultPing   = 2 * time.Second
	DefaultCache  = 500 * time.Millisecond
	DefaultRead   = 5 * time.Second
	DefaultWrite  = 10 * time.Second
	DefaultUpload = 60 * time.Second
)

var (
	mu      sync.RWMutex
	current = Config{
		Ping:   DefaultPing,
		Cache:  DefaultCache,
		Read:   DefaultRead,
		Write:  DefaultWrite,
		Upload: DefaultUpload,
	}
)

// Config holds timeout values. Zero fields keep the current value.
type Config struct {
	Ping   time.Duration
	Cache  time.Duration
	Read   time.Duration
	Write  time.Duration
	Upload time.Duration
}

func Ping() time.Duration   { return get(func(c Config) time.Duration { return c.Ping }) }
func Cache() time.Duration  { return get(func(c Config) time.Duration { return c.Cache }) }
func Read() time.Duration   { return get(func(c Config) time.Duration { return c.Read }) }
func Write() time.Duration  { return get(func(c Config) time.Duration { return c.Write }) }
func Upload() time.Duration { return get(func(c Config) time.Duration { return c.Upload }) }

func get(f func(Config) time.Duration) time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return f(current)
}

// Configure overrides the non-zero fields of cfg. Call it during startup
// before handlers are built.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	set := func(dst *time.Duration, v time.Duration) {
		if v > 0 {
			*dst = v
		}
	}
	set(&current.Ping, cfg.Ping)
	set(&current.Cache, cfg.Cache)
	set(&current.Read, cfg.Read)
	set(&current.Write, cfg.Write)
	set(&current.Upload, cfg.Upload)
}

// Reset restores the defaults. Useful for testing.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	current = Config{
		Ping:   DefaultPing,
		Cache:  DefaultCache,
		Read:   DefaultRead,
		Write:  DefaultWrite,
		Upload: DefaultUpload,
	}
}

// Current returns the active configuration.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// WithTimeout derives a context with timeout whose cancel func logs a
// warning when the deadline was what ended it.
//
//	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Write(), h.Log, "approve user")
//	defer cancel()
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
