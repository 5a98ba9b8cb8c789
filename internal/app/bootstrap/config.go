// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dalemusser/campuscard/internal/app/system/auditlog"
	"github.com/dalemusser/campuscard/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for the console.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: api_base_url, session_name, etc.
//   - Environment variables: CAMPUSCARD_API_BASE_URL, CAMPUSCARD_SESSION_NAME, etc.
//   - Command-line flags: --api_base_url, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "api_base_url", Default: "http://localhost:8080", Desc: "CampusCard REST API base URL"},

	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "campuscard.session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "24h", Desc: "Session cookie lifetime (e.g., 24h, 8h)"},

	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI for the audit trail (blank disables stored audit events)"},
	{Name: "mongo_database", Default: "campuscard_console", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 50, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 0, Desc: "MongoDB min connection pool size"},

	{Name: "redis_addr", Default: "", Desc: "Redis address for the directory cache (blank disables caching)"},
	{Name: "redis_password", Default: "", Desc: "Redis password"},
	{Name: "redis_db", Default: 0, Desc: "Redis database number"},
	{Name: "directory_cache_ttl", Default: "60s", Desc: "How long the public directory and signup lookups are cached"},

	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Moderation event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_retention", Default: "0", Desc: "Delete audit events older than this (e.g., 2160h); 0 keeps them"},

	{Name: "login_ip_limit", Default: 10, Desc: "Login attempts allowed per IP per window"},
	{Name: "login_ip_window", Default: "1m", Desc: "Login per-IP window"},
	{Name: "login_identifier_limit", Default: 5, Desc: "Login attempts allowed per identifier per window"},
	{Name: "login_identifier_window", Default: "5m", Desc: "Login per-identifier window"},

	{Name: "timeout_ping", Default: "2s", Desc: "Health check ping timeout"},
	{Name: "timeout_cache", Default: "500ms", Desc: "Single Redis operation timeout"},
	{Name: "timeout_read", Default: "5s", Desc: "CampusCard API read timeout"},
	{Name: "timeout_write", Default: "10s", Desc: "CampusCard API write timeout"},
	{Name: "timeout_upload", Default: "60s", Desc: "Signup forwarding timeout"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// environment variables (WAFFLE_* for core, CAMPUSCARD_* for app) and
// flags, merged with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "CAMPUSCARD", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		APIBaseURL: strings.TrimSpace(appValues.String("api_base_url")),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),
		SessionMaxAge: appValues.Duration("session_max_age", 24*time.Hour),

		MongoURI:         strings.TrimSpace(appValues.String("mongo_uri")),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		RedisAddr:         strings.TrimSpace(appValues.String("redis_addr")),
		RedisPassword:     appValues.String("redis_password"),
		RedisDB:           appValues.Int("redis_db"),
		DirectoryCacheTTL: appValues.Duration("directory_cache_ttl", 60*time.Second),

		AuditLogAuth:   strings.ToLower(appValues.String("audit_log_auth")),
		AuditLogAdmin:  strings.ToLower(appValues.String("audit_log_admin")),
		AuditRetention: appValues.Duration("audit_retention", 0),

		LoginIPLimit:          appValues.Int("login_ip_limit"),
		LoginIPWindow:         appValues.Duration("login_ip_window", time.Minute),
		LoginIdentifierLimit:  appValues.Int("login_identifier_limit"),
		LoginIdentifierWindow: appValues.Duration("login_identifier_window", 5*time.Minute),

		PingTimeout:   appValues.Duration("timeout_ping", timeouts.DefaultPing),
		CacheTimeout:  appValues.Duration("timeout_cache", timeouts.DefaultCache),
		ReadTimeout:   appValues.Duration("timeout_read", timeouts.DefaultRead),
		WriteTimeout:  appValues.Duration("timeout_write", timeouts.DefaultWrite),
		UploadTimeout: appValues.Duration("timeout_upload", timeouts.DefaultUpload),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation so that
// configuration errors stop startup before anything connects.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	return validateAppConfig(coreCfg.Env, appCfg, logger)
}

func validateAppConfig(env string, appCfg AppConfig, logger *zap.Logger) error {
	u, err := url.Parse(appCfg.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api_base_url %q must be an absolute http(s) URL", appCfg.APIBaseURL)
	}

	if len(appCfg.SessionKey) < 32 {
		return fmt.Errorf("session_key must be at least 32 characters")
	}
	if env == "prod" && strings.HasPrefix(appCfg.SessionKey, "dev-only") {
		return fmt.Errorf("session_key must be changed from the development default in prod")
	}

	if appCfg.AuditStorageEnabled() {
		if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
			logger.Error("invalid MongoDB URI", zap.Error(err))
			return fmt.Errorf("invalid MongoDB URI: %w", err)
		}
		if strings.TrimSpace(appCfg.MongoDatabase) == "" {
			return fmt.Errorf("mongo_database is required when mongo_uri is set")
		}
	}

	for key, mode := range map[string]string{"audit_log_auth": appCfg.AuditLogAuth, "audit_log_admin": appCfg.AuditLogAdmin} {
		if !auditlog.ValidMode(mode) {
			return fmt.Errorf("%s must be one of all, db, log, off (got %q)", key, mode)
		}
	}

	if appCfg.LoginIPLimit < 1 || appCfg.LoginIdentifierLimit < 1 {
		return fmt.Errorf("login rate limits must be positive")
	}
	return nil
}
