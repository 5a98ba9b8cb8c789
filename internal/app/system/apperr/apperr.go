// Package apperr is the error taxonomy shared by the API client, the
// moderation service and the HTTP handlers. Every kind is a typed error
// that also matches a sentinel through errors.Is, so callers can branch
// on the kind without caring which layer produced it.
//
// Two kinds live next to the logic that produces them:
// visibilitypolicy.ForbiddenVisibility and lifecycle.InvalidTransition.
package apperr

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var (
	ErrNetwork            = errors.New("network error")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrValidation         = errors.New("validation failed")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrServer             = errors.New("server error")
)

// NetworkError is a transport failure: no response was received.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}
func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }
func (e *NetworkError) Unwrap() error        { return e.Err }

// UnauthorizedError is a 401 on an authenticated call. It is the only
// kind with a global side effect: the session is discarded.
type UnauthorizedError struct {
	Message string
}

func (e *UnauthorizedError) Error() string {
	if e.Message == "" {
		return "unauthorized"
	}
	return "unauthorized: " + e.Message
}
func (e *UnauthorizedError) Is(target error) bool { return target == ErrUnauthorized }

// InvalidCredentialsError is a rejected login. Unlike UnauthorizedError
// there is no session to discard.
type InvalidCredentialsError struct {
	Message string
}

func (e *InvalidCredentialsError) Error() string {
	if e.Message == "" {
		return "invalid credentials"
	}
	return e.Message
}
func (e *InvalidCredentialsError) Is(target error) bool { return target == ErrInvalidCredentials }

// ValidationError is a 400/422 from the API or a failed local input check.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		if e.Message == "" {
			return "validation failed"
		}
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return strings.Join(parts, ", ")
}
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ForbiddenError is a 403. Body keeps the decoded response so profile
// denials can be classified further.
type ForbiddenError struct {
	Message string
	Body    map[string]any
}

func (e *ForbiddenError) Error() string {
	if e.Message == "" {
		return "forbidden"
	}
	return "forbidden: " + e.Message
}
func (e *ForbiddenError) Is(target error) bool { return target == ErrForbidden }

// NotFoundError is a 404.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	if e.Message == "" {
		return "not found"
	}
	return "not found: " + e.Message
}
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ServerError is a 5xx or an otherwise unexpected status.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server error (%d)", e.StatusCode)
	}
	return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message)
}
func (e *ServerError) Is(target error) bool { return target == ErrServer }

// fieldName matches the lower-camel property paths the API names in
// validation messages, such as "phone" or "profile.linkedIn".
var fieldName = regexp.MustCompile(`^[a-z][A-Za-z0-9_]*(\.[a-z][A-Za-z0-9_]*)*$`)

// ParseFieldMessage splits the API's "field: message, field: message"
// validation format into a map. ok is false when msg is not in that form,
// so a prose message such as "Error: user not pending" names no field.
func ParseFieldMessage(msg string) (fields map[string]string, ok bool) {
	if msg == "" {
		return nil, false
	}
	fields = make(map[string]string)
	for _, part := range strings.Split(msg, ", ") {
		name, text, found := strings.Cut(part, ": ")
		name = strings.TrimSpace(name)
		if !found || !fieldName.MatchString(name) {
			return nil, false
		}
		fields[name] = strings.TrimSpace(text)
	}
	return fields, true
}
