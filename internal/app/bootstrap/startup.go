// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/campuscard/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Ping:   appCfg.PingTimeout,
		Cache:  appCfg.CacheTimeout,
		Read:   appCfg.ReadTimeout,
		Write:  appCfg.WriteTimeout,
		Upload: appCfg.UploadTimeout,
	})
	// Unset keys keep their defaults, so log what is actually in force.
	eff := timeouts.Current()
	logger.Info("request timeouts configured",
		zap.Duration("ping", eff.Ping),
		zap.Duration("cache", eff.Cache),
		zap.Duration("read", eff.Read),
		zap.Duration("write", eff.Write),
		zap.Duration("upload", eff.Upload))
	return nil
}
