// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Limiter counts requests per key in fixed windows. It is safe for
// concurrent use. Expired windows are pruned lazily on Allow.
type Limiter struct {
	mu        sync.Mutex
	windows   map[string]*window
	limit     int
	duration  time.Duration
	now       func() time.Time
	lastPrune time.Time
}

type window struct {
	count     int
	expiresAt time.Time
}

// New creates a limiter allowing limit requests per key per duration.
func New(limit int, duration time.Duration) *Limiter {
	return &Limiter{
		windows:  make(map[string]*window),
		limit:    limit,
		duration: duration,
		now:      time.Now,
	}
}

// Allow records a request for key and reports whether it is within the
// limit.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.prune(now)

	w, exists := l.windows[key]
	if !exists || now.After(w.expiresAt) {
		l.windows[key] = &window{count: 1, expiresAt: now.Add(l.duration)}
		return true
	}
	if w.count >= l.limit {
		return false
	}
	w.count++
	return true
}

// Remaining returns how many requests are left for key in its window.
func (l *Limiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, exists := l.windows[key]
	if !exists || l.now().After(w.expiresAt) {
		return l.limit
	}
	if remaining := l.limit - w.count; remaining > 0 {
		return remaining
	}
	return 0
}

// Reset clears the window of key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
}

// prune drops expired windows at most once per window duration.
// Callers hold l.mu.
func (l *Limiter) prune(now time.Time) {
	if now.Sub(l.lastPrune) < l.duration {
		return
	}
	l.lastPrune = now
	for key, w := range l.windows {
		if now.After(w.expiresAt) {
			delete(l.windows, key)
		}
	}
}

// ClientIP extracts the client IP, preferring proxy headers.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ip := strings.TrimSpace(strings.Split(xff, ",")[0]); ip != "" {
			return ip
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// LoginLimiter throttles sign-in attempts per client IP and per
// identifier (email or national ID), so neither a single client nor a
// spread of clients can hammer one account.
type LoginLimiter struct {
	ipLimiter         *Limiter
	identifierLimiter *Limiter
}

// NewLoginLimiter allows 10 attempts per IP per minute and 5 attempts per
// identifier per 5 minutes.
func NewLoginLimiter() *LoginLimiter {
	return NewLoginLimiterWithConfig(10, time.Minute, 5, 5*time.Minute)
}

// NewLoginLimiterWithConfig creates a login limiter with custom limits.
func NewLoginLimiterWithConfig(ipLimit int, ipDuration time.Duration, idLimit int, idDuration time.Duration) *LoginLimiter {
	return &LoginLimiter{
		ipLimiter:         New(ipLimit, ipDuration),
		identifierLimiter: New(idLimit, idDuration),
	}
}

func identifierKey(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}

// Check records an attempt and reports whether it may proceed, with a
// user-facing reason when it may not.
func (ll *LoginLimiter) Check(r *http.Request, identifier string) (bool, string) {
	if !ll.ipLimiter.Allow(ClientIP(r)) {
		return false, "Too many login attempts. Please wait a minute before trying again."
	}
	if key := identifierKey(identifier); key != "" {
		if !ll.identifierLimiter.Allow(key) {
			return false, "Too many login attempts for this account. Please wait a few minutes."
		}
	}
	return true, ""
}

// Remaining reports how many more attempts the client may make for
// identifier before one of the two windows refuses it.
func (ll *LoginLimiter) Remaining(r *http.Request, identifier string) int {
	n := ll.ipLimiter.Remaining(ClientIP(r))
	if key := identifierKey(identifier); key != "" {
		if m := ll.identifierLimiter.Remaining(key); m < n {
			n = m
		}
	}
	return n
}

// ResetIdentifier clears the identifier window after a successful login.
func (ll *LoginLimiter) ResetIdentifier(identifier string) {
	if key := identifierKey(identifier); key != "" {
		ll.identifierLimiter.Reset(key)
	}
}
