// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/campuscard/internal/app/store/audit"
	"github.com/dalemusser/campuscard/internal/domain/models"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Destination settings for a category.
const (
	ModeAll = "all" // MongoDB + zap
	ModeDB  = "db"  // MongoDB only
	ModeLog = "log" // zap only
	ModeOff = "off" // disabled
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls login, logout, signup and session refresh events.
	Auth string
	// Admin controls moderation events (approve, reject, verification,
	// role changes).
	Admin string
}

// ValidMode reports whether s is one of the destination settings.
func ValidMode(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case ModeAll, ModeDB, ModeLog, ModeOff:
		return true
	}
	return false
}

// Logger records audit events to MongoDB (via audit.Store) and to zap.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger. store may be nil when no category
// writes to the database.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

// getClientIP extracts the client IP from the request.
func getClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

// fromRequest fills the request-derived fields of an event.
func fromRequest(r *http.Request, e audit.Event) audit.Event {
	if r == nil {
		return e
	}
	e.IP = getClientIP(r)
	e.UserAgent = r.UserAgent()
	e.RequestID = middleware.GetReqID(r.Context())
	return e
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.UserID != "" {
		fields = append(fields, zap.String("user_id", event.UserID))
	}
	if event.ActorID != "" {
		fields = append(fields, zap.String("actor_id", event.ActorID))
	}
	if event.RequestID != "" {
		fields = append(fields, zap.String("request_id", event.RequestID))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// A nil Logger is a no-op so tests and optional wiring can pass nil.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryAdmin:
		setting = l.config.Admin
	default:
		setting = ModeAll
	}
	setting = strings.ToLower(strings.TrimSpace(setting))

	if setting == ModeOff {
		return
	}
	if setting == ModeAll || setting == ModeLog {
		l.logToZap(event)
	}
	if (setting == ModeAll || setting == ModeDB) && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

// --- Authentication Events ---

// LoginSuccess logs a successful login.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID models.ID, identifier string) {
	l.Log(ctx, fromRequest(r, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		UserID:    userID.String(),
		Success:   true,
		Details:   map[string]string{"identifier": identifier},
	}))
}

// LoginFailed logs a failed login. credentials distinguishes a rejected
// identifier/password pair from the API being unreachable.
func (l *Logger) LoginFailed(ctx context.Context, r *http.Request, identifier string, credentials bool, reason string) {
	eventType := audit.EventLoginFailedUnavailable
	if credentials {
		eventType = audit.EventLoginFailedCredentials
	}
	l.Log(ctx, fromRequest(r, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     eventType,
		Success:       false,
		FailureReason: reason,
		Details:       map[string]string{"attempted_identifier": identifier},
	}))
}

// LoginRateLimited logs a sign-in attempt refused by the login limiter.
func (l *Logger) LoginRateLimited(ctx context.Context, r *http.Request, identifier, reason string) {
	l.Log(ctx, fromRequest(r, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedRateLimit,
		Success:       false,
		FailureReason: reason,
		Details:       map[string]string{"attempted_identifier": identifier},
	}))
}

// Logout logs the end of a session. reason is user_logout or
// unauthorized.
func (l *Logger) Logout(ctx context.Context, r *http.Request, userID models.ID, reason string) {
	l.Log(ctx, fromRequest(r, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLogout,
		UserID:    userID.String(),
		Success:   true,
		Details:   map[string]string{"reason": reason},
	}))
}

// SessionStatusRefreshed logs a session whose role or status changed on
// the server since login.
func (l *Logger) SessionStatusRefreshed(ctx context.Context, r *http.Request, userID models.ID, from, to models.Status, role models.Role) {
	l.Log(ctx, fromRequest(r, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventSessionStatusRefreshed,
		UserID:    userID.String(),
		Success:   true,
		Details: map[string]string{
			"from_status": from.String(),
			"to_status":   to.String(),
			"role":        role.String(),
		},
	}))
}

// SignupSubmitted logs a forwarded registration.
func (l *Logger) SignupSubmitted(ctx context.Context, r *http.Request, userID models.ID, email string, err error) {
	e := audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventSignupSubmitted,
		UserID:    userID.String(),
		Success:   err == nil,
		Details:   map[string]string{"email": email},
	}
	if err != nil {
		e.FailureReason = err.Error()
	}
	l.Log(ctx, fromRequest(r, e))
}

// --- Admin Events ---

// Transition logs an administrator lifecycle action on userID. A non-nil
// err records a refused or failed action.
func (l *Logger) Transition(ctx context.Context, r *http.Request, eventType string, actorID, userID models.ID, details map[string]string, err error) {
	e := audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: eventType,
		UserID:    userID.String(),
		ActorID:   actorID.String(),
		Success:   err == nil,
		Details:   details,
	}
	if err != nil {
		e.FailureReason = err.Error()
	}
	l.Log(ctx, fromRequest(r, e))
}
