// internal/app/features/errors/render.go
package errors

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/dalemusser/campuscard/internal/app/policy/visibilitypolicy"
	"github.com/dalemusser/campuscard/internal/app/system/apperr"
	"github.com/dalemusser/campuscard/internal/domain/lifecycle"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// RenderUnauthorized answers a request that needs a session.
func RenderUnauthorized(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusUnauthorized, Body{
		Error:    KindUnauthorized,
		Message:  "Please sign in to continue.",
		Redirect: "/login",
	})
}

// RenderForbidden answers a request the caller may not make.
func RenderForbidden(w http.ResponseWriter, r *http.Request, msg string) {
	if msg == "" {
		msg = "You don't have permission to do that."
	}
	WriteJSON(w, http.StatusForbidden, Body{Error: KindForbidden, Message: msg})
}

// RenderNotFound answers a request for something that does not exist.
func RenderNotFound(w http.ResponseWriter, r *http.Request, msg string) {
	WriteJSON(w, http.StatusNotFound, Body{Error: KindNotFound, Message: msg})
}

// RenderBadRequest answers malformed input.
func RenderBadRequest(w http.ResponseWriter, r *http.Request, msg string, fields map[string]string) {
	WriteJSON(w, http.StatusBadRequest, Body{Error: KindValidation, Message: msg, Fields: fields})
}

// ErrorLogger maps errors onto responses and logs them at the handler
// boundary.
type ErrorLogger struct {
	Log *zap.Logger
	// OnUnauthorized ends the session when the API rejects its token.
	// When nil a plain 401 is written.
	OnUnauthorized func(w http.ResponseWriter, r *http.Request)
}

// NewErrorLogger returns an ErrorLogger. onUnauthorized may be nil.
func NewErrorLogger(logger *zap.Logger, onUnauthorized func(http.ResponseWriter, *http.Request)) *ErrorLogger {
	return &ErrorLogger{Log: logger, OnUnauthorized: onUnauthorized}
}

// Classify returns the status and body for err.
func Classify(err error) (int, Body) {
	var (
		ve *apperr.ValidationError
		fv *visibilitypolicy.ForbiddenVisibility
		it *lifecycle.InvalidTransition
		ic *apperr.InvalidCredentialsError
		fe *apperr.ForbiddenError
		nf *apperr.NotFoundError
	)
	switch {
	case stderrors.As(err, &fv):
		status := http.StatusForbidden
		body := Body{Error: KindForbiddenVisibility, Reason: string(fv.Reason), Message: visibilityMessage(fv)}
		switch fv.Reason {
		case visibilitypolicy.ReasonNotFound:
			status = http.StatusNotFound
		case visibilitypolicy.ReasonSignInRequired:
			body.Redirect = "/login"
		}
		return status, body
	case stderrors.As(err, &it):
		return http.StatusConflict, Body{Error: KindInvalidTransition, Message: it.Error()}
	case stderrors.As(err, &ve):
		msg := ve.Message
		if msg == "" {
			msg = "Please correct the highlighted fields."
		}
		return http.StatusBadRequest, Body{Error: KindValidation, Message: msg, Fields: ve.Fields}
	case stderrors.As(err, &ic):
		msg := ic.Message
		if msg == "" {
			msg = "Invalid email, national ID or password."
		}
		return http.StatusUnauthorized, Body{Error: KindInvalidCredentials, Message: msg}
	case stderrors.Is(err, apperr.ErrUnauthorized):
		return http.StatusUnauthorized, Body{Error: KindUnauthorized, Message: "Your session has ended. Please sign in again.", Redirect: "/login"}
	case stderrors.As(err, &fe):
		msg := fe.Message
		if msg == "" {
			msg = "You don't have permission to do that."
		}
		return http.StatusForbidden, Body{Error: KindForbidden, Message: msg}
	case stderrors.As(err, &nf):
		msg := nf.Message
		if msg == "" {
			msg = "Not found."
		}
		return http.StatusNotFound, Body{Error: KindNotFound, Message: msg}
	case stderrors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, Body{Error: KindTimeout, Message: "The CampusCard service took too long to respond."}
	case stderrors.Is(err, apperr.ErrNetwork):
		return http.StatusBadGateway, Body{Error: KindNetwork, Message: "The CampusCard service is unreachable. Try again shortly."}
	case stderrors.Is(err, apperr.ErrServer):
		return http.StatusBadGateway, Body{Error: KindServer, Message: "The CampusCard service failed to handle the request."}
	}
	return http.StatusInternalServerError, Body{Error: KindInternal, Message: "Something went wrong."}
}

func visibilityMessage(fv *visibilitypolicy.ForbiddenVisibility) string {
	switch fv.Reason {
	case visibilitypolicy.ReasonSignInRequired:
		return "Sign in to view this profile."
	case visibilitypolicy.ReasonNotFound:
		return "Profile not found."
	}
	return "This profile is private."
}

// HandleError logs err and writes the matching response. A 401 from the
// API ends the session through OnUnauthorized.
func (el *ErrorLogger) HandleError(w http.ResponseWriter, r *http.Request, err error, op string) {
	status, body := Classify(err)

	fields := []zap.Field{
		zap.String("op", op),
		zap.String("path", r.URL.Path),
		zap.String("kind", body.Error),
		zap.Int("status", status),
		zap.Error(err),
	}
	if id := middleware.GetReqID(r.Context()); id != "" {
		fields = append(fields, zap.String("request_id", id))
	}
	switch {
	case status >= 500:
		el.Log.Error("request failed", fields...)
	case body.Error == KindUnauthorized || body.Error == KindInvalidTransition:
		el.Log.Info("request refused", fields...)
	default:
		el.Log.Debug("request refused", fields...)
	}

	if body.Error == KindUnauthorized && el.OnUnauthorized != nil {
		el.OnUnauthorized(w, r)
		return
	}
	WriteJSON(w, status, body)
}
