package auth

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

// DefaultSessionName is the slot name used when none is configured.
const DefaultSessionName = "campuscard.session"

// valueKey is the single cookie value holding the encoded Session.
const valueKey = "session"

// SessionStore is the session slot for one navigation.
//
// Get returns nil when no valid session is stored: before any Set, after
// Clear, and whenever the stored data is corrupt, tampered or expired.
// Set overwrites the slot wholesale.
type SessionStore interface {
	Get() *Session
	Set(Session) error
	Clear() error
}

// SessionManager owns the cookie store and the in-process revocation set.
// Construct one at startup and pass it to whatever needs sessions.
type SessionManager struct {
	store  *sessions.CookieStore
	name   string
	maxAge time.Duration
	logger *zap.Logger
	now    func() time.Time

	mu      sync.Mutex
	revoked map[string]time.Time
}

// NewSessionManager builds a SessionManager around a signed cookie store.
//
// secure controls the Secure flag and SameSite mode: Secure+None in
// production over HTTPS, Lax for local development over http.
func NewSessionManager(sessionKey, name, domain string, maxAge time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, errors.New("session key is empty; provide at least 32 random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}
	if name == "" {
		name = DefaultSessionName
	}
	if maxAge <= 0 {
		maxAge = 24 * time.Hour
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	store.Options = &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if secure {
		store.Options.SameSite = http.SameSiteNoneMode
	}
	store.MaxAge(store.Options.MaxAge)

	logger.Info("session manager initialized",
		zap.String("name", name),
		zap.Bool("secure", secure),
		zap.String("domain", domain),
		zap.Duration("max_age", maxAge))

	return &SessionManager{
		store:   store,
		name:    name,
		maxAge:  maxAge,
		logger:  logger,
		now:     time.Now,
		revoked: make(map[string]time.Time),
	}, nil
}

// Name returns the cookie name of the slot.
func (m *SessionManager) Name() string { return m.name }

// For binds the slot to one request/response pair.
func (m *SessionManager) For(w http.ResponseWriter, r *http.Request) SessionStore {
	return &cookieSlot{m: m, w: w, r: r}
}

// Load reads the session from r without a response writer. It is the
// read-only half of For(w, r).Get().
func (m *SessionManager) Load(r *http.Request) *Session {
	return (&cookieSlot{m: m, r: r}).Get()
}

// Revoke marks token as logged out in this process. Sessions carrying a
// revoked token read as nil even if a stale cookie still holds them.
// It reports whether token was newly revoked.
func (m *SessionManager) Revoke(token string) bool {
	if token == "" {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for t, at := range m.revoked {
		if now.Sub(at) > m.maxAge {
			delete(m.revoked, t)
		}
	}
	if _, ok := m.revoked[token]; ok {
		return false
	}
	m.revoked[token] = now
	return true
}

// Unrevoke forgets a revocation. Login calls it before storing a token
// the API issued, since logout never invalidates the token upstream and
// the API may hand the same one back.
func (m *SessionManager) Unrevoke(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.revoked, token)
}

// IsRevoked reports whether token was revoked by Revoke.
func (m *SessionManager) IsRevoked(token string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.revoked[token]
	return ok
}

// cookieSlot implements SessionStore over a gorilla session cookie.
type cookieSlot struct {
	m *SessionManager
	w http.ResponseWriter
	r *http.Request
}

func (c *cookieSlot) session() *sessions.Session {
	sess, err := c.m.store.Get(c.r, c.m.name)
	if err != nil {
		var scErr securecookie.Error
		if errors.As(err, &scErr) && scErr.IsDecode() {
			c.m.logger.Debug("session cookie invalid, treating as signed out", zap.Error(err))
		} else {
			c.m.logger.Warn("session store error, treating as signed out", zap.Error(err))
		}
	}
	return sess
}

func (c *cookieSlot) Get() *Session {
	sess := c.session()
	raw, _ := sess.Values[valueKey].(string)
	s := decodeSession(raw)
	if s == nil {
		return nil
	}
	if s.Expired(c.m.now()) || c.m.IsRevoked(s.Token) {
		return nil
	}
	return s
}

func (c *cookieSlot) Set(s Session) error {
	if c.w == nil {
		return errors.New("session slot is read-only")
	}
	raw, err := encodeSession(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	sess := c.session()
	opts := *c.m.store.Options
	sess.Options = &opts
	sess.Values[valueKey] = raw
	if err := sess.Save(c.r, c.w); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (c *cookieSlot) Clear() error {
	if c.w == nil {
		return errors.New("session slot is read-only")
	}
	sess := c.session()
	opts := *c.m.store.Options
	opts.MaxAge = -1
	sess.Options = &opts
	delete(sess.Values, valueKey)
	if err := sess.Save(c.r, c.w); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
