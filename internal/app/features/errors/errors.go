// internal/app/features/errors/errors.go
package errors

import (
	"encoding/json"
	"net/http"
)

// Body is the JSON error envelope every console endpoint returns.
type Body struct {
	Error    string            `json:"error"`
	Message  string            `json:"message"`
	Fields   map[string]string `json:"fields,omitempty"`
	Reason   string            `json:"reason,omitempty"`
	Redirect string            `json:"redirect,omitempty"`
}

// Error kinds.
const (
	KindNetwork             = "network"
	KindUnauthorized        = "unauthorized"
	KindInvalidCredentials  = "invalid_credentials"
	KindValidation          = "validation"
	KindForbidden           = "forbidden"
	KindForbiddenVisibility = "forbidden_visibility"
	KindInvalidTransition   = "invalid_transition"
	KindNotFound            = "not_found"
	KindServer              = "server"
	KindTimeout             = "timeout"
	KindInternal            = "internal"
	KindMethodNotAllowed    = "method_not_allowed"
	KindRateLimited         = "rate_limited"
)

// WriteJSON writes body with status.
func WriteJSON(w http.ResponseWriter, status int, body Body) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// Handler serves the router-level error responses.
type Handler struct{}

// NewHandler constructs an errors Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// NotFound answers unknown routes.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	RenderNotFound(w, r, "Page not found.")
}

// MethodNotAllowed answers a known route with the wrong method.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusMethodNotAllowed, Body{
		Error:   KindMethodNotAllowed,
		Message: r.Method + " is not allowed here.",
	})
}
