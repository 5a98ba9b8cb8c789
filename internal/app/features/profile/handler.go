// internal/app/features/profile/handler.go
package profile

import (
	"context"

	uierrors "github.com/dalemusser/campuscard/internal/app/features/errors"
	"github.com/dalemusser/campuscard/internal/domain/models"
	"go.uber.org/zap"
)

// API is the part of the CampusCard API profile pages need.
type API interface {
	Profile(ctx context.Context, token string, id models.ID) (models.Profile, error)
	MyProfile(ctx context.Context, token string) (models.Profile, error)
}

// Handler owns the profile card handlers.
type Handler struct {
	API    API
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger
}

// NewHandler constructs a Handler over the CampusCard API.
func NewHandler(api API, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		API:    api,
		Log:    logger,
		ErrLog: errLog,
	}
}
