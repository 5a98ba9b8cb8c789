// internal/app/features/systemusers/handler.go
package systemusers

import (
	uierrors "github.com/dalemusser/campuscard/internal/app/features/errors"
	"github.com/dalemusser/campuscard/internal/app/store/audit"
	"github.com/dalemusser/campuscard/internal/app/system/dircache"
	"github.com/dalemusser/campuscard/internal/app/system/moderation"
	"go.uber.org/zap"
)

const historyLimit = 20

type Handler struct {
	Moderation *moderation.Service
	Cache      *dircache.Cache
	Audit      *audit.Store // nil when audit events are not stored
	Log        *zap.Logger
	ErrLog     *uierrors.ErrorLogger
}

// NewHandler constructs the account moderation handler. Auditing
// happens inside the moderation service; store only feeds the history
// shown on a user's page.
func NewHandler(mod *moderation.Service, cache *dircache.Cache, store *audit.Store, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Moderation: mod,
		Cache:      cache,
		Audit:      store,
		Log:        logger,
		ErrLog:     errLog,
	}
}
