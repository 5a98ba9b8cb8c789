package apiclient

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/campuscard/internal/app/system/timeouts"
	"github.com/dalemusser/campuscard/internal/domain/models"
)

// ErrStatusUnavailable is returned by CurrentStatus when the own-profile
// response carries no usable role or status.
var ErrStatusUnavailable = errors.New("role and status not present in profile response")

// Profile fetches a user's profile card. token may be empty for an
// anonymous viewer.
func (c *Client) Profile(ctx context.Context, token string, id models.ID) (models.Profile, error) {
	var res models.Profile
	err := c.do(ctx, call{
		op:      "get profile",
		method:  http.MethodGet,
		path:    "/api/profile/" + escape(id),
		token:   token,
		timeout: timeouts.Read(),
		out:     &res,
	})
	return res, err
}

// MyProfile fetches the caller's own profile, including role and status.
func (c *Client) MyProfile(ctx context.Context, token string) (models.Profile, error) {
	var res models.Profile
	err := c.do(ctx, call{
		op:      "get own profile",
		method:  http.MethodGet,
		path:    "/api/profile",
		token:   token,
		timeout: timeouts.Read(),
		out:     &res,
	})
	return res, err
}

// PublicStudents lists the directory: approved students with public
// profiles.
func (c *Client) PublicStudents(ctx context.Context) ([]models.Profile, error) {
	var res []models.Profile
	err := c.do(ctx, call{
		op:      "list public students",
		method:  http.MethodGet,
		path:    "/api/profile/public-students",
		timeout: timeouts.Read(),
		out:     &res,
	})
	return res, err
}

// CurrentStatus returns the freshest role and status for the token's
// owner.
func (c *Client) CurrentStatus(ctx context.Context, token string) (models.Role, models.Status, error) {
	p, err := c.MyProfile(ctx, token)
	if err != nil {
		return models.RoleUnknown, models.StatusUnknown, err
	}
	if !p.Role.Valid() || !p.Status.Valid() {
		return models.RoleUnknown, models.StatusUnknown, ErrStatusUnavailable
	}
	return p.Role, p.Status, nil
}
