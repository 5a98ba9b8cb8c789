// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	auditlogfeature "github.com/dalemusser/campuscard/internal/app/features/auditlog"
	dashboardfeature "github.com/dalemusser/campuscard/internal/app/features/dashboard"
	errorsfeature "github.com/dalemusser/campuscard/internal/app/features/errors"
	healthfeature "github.com/dalemusser/campuscard/internal/app/features/health"
	homefeature "github.com/dalemusser/campuscard/internal/app/features/home"
	loginfeature "github.com/dalemusser/campuscard/internal/app/features/login"
	logoutfeature "github.com/dalemusser/campuscard/internal/app/features/logout"
	profilefeature "github.com/dalemusser/campuscard/internal/app/features/profile"
	signupfeature "github.com/dalemusser/campuscard/internal/app/features/signup"
	statusfeature "github.com/dalemusser/campuscard/internal/app/features/status"
	systemusersfeature "github.com/dalemusser/campuscard/internal/app/features/systemusers"
	userinfofeature "github.com/dalemusser/campuscard/internal/app/features/userinfo"
	"github.com/dalemusser/campuscard/internal/app/store/audit"
	"github.com/dalemusser/campuscard/internal/app/system/apiclient"
	"github.com/dalemusser/campuscard/internal/app/system/auditlog"
	"github.com/dalemusser/campuscard/internal/app/system/auth"
	"github.com/dalemusser/campuscard/internal/app/system/dircache"
	"github.com/dalemusser/campuscard/internal/app/system/guard"
	"github.com/dalemusser/campuscard/internal/app/system/moderation"
	"github.com/dalemusser/campuscard/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for the console.
//
// WAFFLE calls this after configuration, DB connections, schema setup and
// Startup have completed. It builds the shared services once (API client,
// session manager, audit logger, logout coordinator, guard, moderation
// service, directory cache) and mounts every feature router on them.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	api, err := apiclient.New(appCfg.APIBaseURL, logger.Named("api"))
	if err != nil {
		logger.Error("api client init failed", zap.Error(err))
		return nil, err
	}

	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	var auditStore *audit.Store
	if deps.MongoDatabase != nil {
		auditStore = audit.New(deps.MongoDatabase)
	}
	auditLog := auditlog.New(auditStore, logger.Named("audit"), auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Admin: appCfg.AuditLogAdmin,
	})

	// Every path that ends a session (logout, an API 401 during a
	// request) goes through one coordinator so it is audited once.
	logoutCoord := auth.NewLogoutCoordinator(sessionMgr, logoutfeature.AuditHook(auditLog), logger)
	errLog := errorsfeature.NewErrorLogger(logger, logoutCoord.HandleUnauthorized)
	g := guard.New(sessionMgr, api, logoutCoord, logger)

	cache := dircache.New(deps.Redis, "campuscard:", appCfg.DirectoryCacheTTL, logger)
	mod := moderation.New(api, auditLog, logger)
	limiter := ratelimit.NewLoginLimiterWithConfig(
		appCfg.LoginIPLimit, appCfg.LoginIPWindow,
		appCfg.LoginIdentifierLimit, appCfg.LoginIdentifierWindow,
	)

	errorsHandler := errorsfeature.NewHandler()
	r := chi.NewRouter()
	r.NotFound(errorsHandler.NotFound)
	r.MethodNotAllowed(errorsHandler.MethodNotAllowed)

	// Request IDs are forwarded to the API as X-Request-ID.
	r.Use(middleware.RequestID)
	// Loads the session (if any) so handlers can call auth.CurrentSession(r).
	r.Use(sessionMgr.LoadSession)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, cache, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	userinfofeature.MountRoutes(r, userinfofeature.NewHandler())

	// Public directory and profiles
	homeHandler := homefeature.NewHandler(api, cache, errLog, logger)
	r.Mount("/", homefeature.Routes(homeHandler))
	r.Mount("/directory", homefeature.Routes(homeHandler))

	profileHandler := profilefeature.NewHandler(api, errLog, logger)
	r.Mount("/profile", profilefeature.Routes(profileHandler))
	r.Mount("/me", profilefeature.MeRoutes(profileHandler, g))

	// Authentication and registration
	loginHandler := loginfeature.NewHandler(api, sessionMgr, limiter, auditLog, errLog, logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(logoutCoord, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler, g))

	signupHandler := signupfeature.NewHandler(api, cache, auditLog, errLog, logger)
	r.Mount("/signup", signupfeature.Routes(signupHandler))

	statusHandler := statusfeature.NewHandler(api, sessionMgr, auditLog, errLog, logger)
	r.Mount("/status", statusfeature.Routes(statusHandler, g))

	// Administration
	dashboardHandler := dashboardfeature.NewHandler(mod, auditStore, errLog, logger)
	r.Mount("/admin", dashboardfeature.Routes(dashboardHandler, g))

	usersHandler := systemusersfeature.NewHandler(mod, cache, auditStore, errLog, logger)
	r.Mount("/admin/users", systemusersfeature.Routes(usersHandler, g))

	if auditStore != nil {
		auditHandler := auditlogfeature.NewHandler(auditStore, errLog, logger)
		r.Mount("/admin/audit", auditlogfeature.Routes(auditHandler, g))
	}

	return r, nil
}
