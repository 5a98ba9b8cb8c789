// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for the CampusCard
// console.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers
// the framework-level settings (ports, TLS, log level, CORS); everything
// specific to the console lives here. The struct is passed to every
// lifecycle hook.
type AppConfig struct {
	// CampusCard API
	APIBaseURL string // Absolute base URL of the CampusCard REST API (e.g., http://localhost:8080)

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: campuscard.session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Cookie lifetime; the API token may expire sooner

	// MongoDB holds the audit trail. A blank URI disables stored audit
	// events; zap logging of them continues.
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Redis backs the directory cache. A blank address disables caching.
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	DirectoryCacheTTL time.Duration

	// Audit logging: "all", "db", "log" or "off"
	AuditLogAuth   string
	AuditLogAdmin  string
	AuditRetention time.Duration // zero keeps events forever

	// Login throttling
	LoginIPLimit          int
	LoginIPWindow         time.Duration
	LoginIdentifierLimit  int
	LoginIdentifierWindow time.Duration

	// Per-operation deadlines for calls made on behalf of a request
	PingTimeout   time.Duration
	CacheTimeout  time.Duration
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	UploadTimeout time.Duration
}

// AuditStorageEnabled reports whether audit events go to MongoDB.
func (c AppConfig) AuditStorageEnabled() bool { return c.MongoURI != "" }
