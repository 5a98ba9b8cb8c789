// internal/app/features/userinfo/handler.go
package userinfo

import (
	"net/http"

	"github.com/dalemusser/campuscard/internal/app/features/shared/respond"
	"github.com/dalemusser/campuscard/internal/app/system/auth"
	"github.com/dalemusser/campuscard/internal/domain/models"
)

// Handler serves the identity of the current session.
type Handler struct{}

// NewHandler creates a new userinfo handler.
func NewHandler() *Handler {
	return &Handler{}
}

type userInfo struct {
	IsAuthenticated bool          `json:"isAuthenticated"`
	UserID          models.ID     `json:"userId,omitempty"`
	Email           string        `json:"email"`
	Role            models.Role   `json:"role,omitempty"`
	Status          models.Status `json:"status,omitempty"`
	IsAdmin         bool          `json:"isAdmin"`
	IsApproved      bool          `json:"isApproved"`
}

// ServeUserInfo returns JSON with the current session's identity as last
// read from the API. The bearer token never leaves the server.
//
// Response format:
//
//	{ "isAuthenticated": bool, "userId": 7, "email": "...", "role": "STUDENT", "status": "APPROVED", ... }
func (h *Handler) ServeUserInfo(w http.ResponseWriter, r *http.Request) {
	s, ok := auth.CurrentSession(r)
	if !ok {
		respond.JSON(w, http.StatusOK, userInfo{})
		return
	}
	respond.JSON(w, http.StatusOK, userInfo{
		IsAuthenticated: true,
		UserID:          s.UserID,
		Email:           s.Email,
		Role:            s.Role,
		Status:          s.Status,
		IsAdmin:         s.IsAdmin(),
		IsApproved:      s.IsApproved(),
	})
}
