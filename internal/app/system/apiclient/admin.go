package apiclient

import (
	"context"
	"net/http"

	"github.com/dalemusser/campuscard/internal/app/system/timeouts"
	"github.com/dalemusser/campuscard/internal/domain/models"
)

// ListUsers returns every account.
func (c *Client) ListUsers(ctx context.Context, token string) ([]models.User, error) {
	var res []models.User
	err := c.do(ctx, call{
		op:      "list users",
		method:  http.MethodGet,
		path:    "/api/admin/users",
		token:   token,
		timeout: timeouts.Read(),
		out:     &res,
	})
	return res, err
}

// ListPendingUsers returns accounts awaiting moderation.
func (c *Client) ListPendingUsers(ctx context.Context, token string) ([]models.User, error) {
	var res []models.User
	err := c.do(ctx, call{
		op:      "list pending users",
		method:  http.MethodGet,
		path:    "/api/admin/users/pending",
		token:   token,
		timeout: timeouts.Read(),
		out:     &res,
	})
	return res, err
}

// GetUser returns one account for review.
func (c *Client) GetUser(ctx context.Context, token string, id models.ID) (models.User, error) {
	var res models.User
	err := c.do(ctx, call{
		op:      "get user",
		method:  http.MethodGet,
		path:    "/api/admin/users/" + escape(id),
		token:   token,
		timeout: timeouts.Read(),
		out:     &res,
	})
	return res, err
}

// DashboardStats returns the moderation counters.
func (c *Client) DashboardStats(ctx context.Context, token string) (models.DashboardStats, error) {
	var res models.DashboardStats
	err := c.do(ctx, call{
		op:      "dashboard stats",
		method:  http.MethodGet,
		path:    "/api/admin/dashboard/stats",
		token:   token,
		timeout: timeouts.Read(),
		out:     &res,
	})
	return res, err
}

type decisionRequest struct {
	UserID          models.ID `json:"userId"`
	Approved        bool      `json:"approved"`
	RejectionReason string    `json:"rejectionReason,omitempty"`
}

// ApproveUser moves an account to APPROVED.
func (c *Client) ApproveUser(ctx context.Context, token string, id models.ID) (models.User, error) {
	return c.decide(ctx, "approve user", token, decisionRequest{UserID: id, Approved: true})
}

// RejectUser moves an account to REJECTED with reason.
func (c *Client) RejectUser(ctx context.Context, token string, id models.ID, reason string) (models.User, error) {
	return c.decide(ctx, "reject user", token, decisionRequest{UserID: id, RejectionReason: reason})
}

func (c *Client) decide(ctx context.Context, op, token string, d decisionRequest) (models.User, error) {
	body, err := jsonBody(d)
	if err != nil {
		return models.User{}, err
	}
	var res models.User
	err = c.do(ctx, call{
		op:      op,
		method:  http.MethodPost,
		path:    "/api/admin/users/approve-reject",
		token:   token,
		body:    body,
		timeout: timeouts.Write(),
		out:     &res,
	})
	return res, err
}

// VerificationResult is the body of a send-verification call. Token is
// only present when the API runs in testing mode.
type VerificationResult struct {
	Message string    `json:"message"`
	Token   string    `json:"token,omitempty"`
	Info    string    `json:"info,omitempty"`
	UserID  models.ID `json:"userId,omitempty"`
}

// SendVerification asks the API to issue and dispatch a verification token.
func (c *Client) SendVerification(ctx context.Context, token string, id models.ID) (VerificationResult, error) {
	var res VerificationResult
	err := c.do(ctx, call{
		op:      "send verification",
		method:  http.MethodPost,
		path:    "/api/admin/users/" + escape(id) + "/send-verification",
		token:   token,
		timeout: timeouts.Write(),
		out:     &res,
	})
	return res, err
}

// VerifyEmail confirms a verification token on behalf of the user.
func (c *Client) VerifyEmail(ctx context.Context, token string, id models.ID, verificationToken string) error {
	return c.do(ctx, call{
		op:      "verify email",
		method:  http.MethodPost,
		path:    "/api/admin/users/" + escape(id) + "/verify-email/" + escape(models.ID(verificationToken)),
		token:   token,
		timeout: timeouts.Write(),
	})
}

// ChangeRole sets an account's role.
func (c *Client) ChangeRole(ctx context.Context, token string, id models.ID, role models.Role) (models.User, error) {
	body, err := jsonBody(map[string]models.Role{"role": role})
	if err != nil {
		return models.User{}, err
	}
	var res models.User
	err = c.do(ctx, call{
		op:      "change role",
		method:  http.MethodPost,
		path:    "/api/admin/users/" + escape(id) + "/change-role",
		token:   token,
		body:    body,
		timeout: timeouts.Write(),
		out:     &res,
	})
	return res, err
}
