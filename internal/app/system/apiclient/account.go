package apiclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/dalemusser/campuscard/internal/app/system/apperr"
	"github.com/dalemusser/campuscard/internal/app/system/timeouts"
	"github.com/dalemusser/campuscard/internal/domain/models"
)

// LoginResult is the body of a successful POST /api/login.
type LoginResult struct {
	Token   string        `json:"token"`
	ID      models.ID     `json:"id"`
	Email   string        `json:"email"`
	Role    models.Role   `json:"role"`
	Status  models.Status `json:"status"`
	Message string        `json:"message,omitempty"`
}

// Login exchanges an identifier (email or national id) and password for a
// token. A 401 here is InvalidCredentialsError, never UnauthorizedError.
func (c *Client) Login(ctx context.Context, identifier, password string) (LoginResult, error) {
	body, err := jsonBody(map[string]string{"identifier": identifier, "password": password})
	if err != nil {
		return LoginResult{}, err
	}

	var res LoginResult
	err = c.do(ctx, call{
		op:      "login",
		method:  http.MethodPost,
		path:    "/api/login",
		body:    body,
		timeout: timeouts.Write(),
		out:     &res,
	})
	var ue *apperr.UnauthorizedError
	if errors.As(err, &ue) {
		return LoginResult{}, &apperr.InvalidCredentialsError{Message: ue.Message}
	}
	if err != nil {
		return LoginResult{}, err
	}
	if res.Token == "" {
		return LoginResult{}, &apperr.InvalidCredentialsError{Message: res.Message}
	}
	return res, nil
}

// SignupResult is the body of a successful POST /api/signup.
type SignupResult struct {
	ID      models.ID     `json:"id"`
	Email   string        `json:"email"`
	Status  models.Status `json:"status"`
	Message string        `json:"message,omitempty"`
}

// Signup forwards a multipart registration form unchanged.
func (c *Client) Signup(ctx context.Context, contentType string, body io.Reader) (SignupResult, error) {
	var res SignupResult
	err := c.do(ctx, call{
		op:          "signup",
		method:      http.MethodPost,
		path:        "/api/signup",
		body:        body,
		contentType: contentType,
		timeout:     timeouts.Upload(),
		out:         &res,
	})
	return res, err
}

// Faculties lists the faculties offered at signup.
func (c *Client) Faculties(ctx context.Context) ([]models.Faculty, error) {
	var res []models.Faculty
	err := c.do(ctx, call{
		op:      "list faculties",
		method:  http.MethodGet,
		path:    "/api/public/faculties",
		timeout: timeouts.Read(),
		out:     &res,
	})
	return res, err
}

// Departments lists departments, optionally narrowed to one faculty.
func (c *Client) Departments(ctx context.Context, facultyID models.ID) ([]models.Department, error) {
	path := "/api/public/departments"
	if facultyID != "" {
		path += "?facultyId=" + url.QueryEscape(facultyID.String())
	}
	var res []models.Department
	err := c.do(ctx, call{
		op:      "list departments",
		method:  http.MethodGet,
		path:    path,
		timeout: timeouts.Read(),
		out:     &res,
	})
	return res, err
}
