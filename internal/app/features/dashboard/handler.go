// internal/app/features/dashboard/handler.go
package dashboard

import (
	"time"

	uierrors "github.com/dalemusser/campuscard/internal/app/features/errors"
	"github.com/dalemusser/campuscard/internal/app/store/audit"
	"github.com/dalemusser/campuscard/internal/app/system/moderation"
	"go.uber.org/zap"
)

const (
	pendingPreview = 5
	recentEvents   = 10
	failedLogins   = 10
	failedWindow   = 24 * time.Hour
)

type Handler struct {
	Moderation *moderation.Service
	Audit      *audit.Store // nil when audit events are not stored
	ErrLog     *uierrors.ErrorLogger
	Log        *zap.Logger
}

func NewHandler(mod *moderation.Service, store *audit.Store, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Moderation: mod,
		Audit:      store,
		ErrLog:     errLog,
		Log:        logger,
	}
}
