package errors_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	uierrors "github.com/dalemusser/campuscard/internal/app/features/errors"
	"github.com/dalemusser/campuscard/internal/app/policy/visibilitypolicy"
	"github.com/dalemusser/campuscard/internal/app/system/apperr"
	"github.com/dalemusser/campuscard/internal/domain/lifecycle"
	"github.com/dalemusser/campuscard/internal/testutil"
	"go.uber.org/zap"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		kind   string
	}{
		{"network", &apperr.NetworkError{Op: "x", Err: fmt.Errorf("refused")}, http.StatusBadGateway, uierrors.KindNetwork},
		{"unauthorized", fmt.Errorf("list: %w", &apperr.UnauthorizedError{}), http.StatusUnauthorized, uierrors.KindUnauthorized},
		{"bad credentials", &apperr.InvalidCredentialsError{}, http.StatusUnauthorized, uierrors.KindInvalidCredentials},
		{"validation", &apperr.ValidationError{Fields: map[string]string{"a": "b"}}, http.StatusBadRequest, uierrors.KindValidation},
		{"forbidden", &apperr.ForbiddenError{}, http.StatusForbidden, uierrors.KindForbidden},
		{"not found", &apperr.NotFoundError{}, http.StatusNotFound, uierrors.KindNotFound},
		{"server", &apperr.ServerError{StatusCode: 500}, http.StatusBadGateway, uierrors.KindServer},
		{"transition", &lifecycle.InvalidTransition{Action: lifecycle.ActionReject}, http.StatusConflict, uierrors.KindInvalidTransition},
		{"private", &visibilitypolicy.ForbiddenVisibility{Reason: visibilitypolicy.ReasonPrivate}, http.StatusForbidden, uierrors.KindForbiddenVisibility},
		{"profile missing", &visibilitypolicy.ForbiddenVisibility{Reason: visibilitypolicy.ReasonNotFound}, http.StatusNotFound, uierrors.KindForbiddenVisibility},
		{"timeout", fmt.Errorf("call: %w", context.DeadlineExceeded), http.StatusGatewayTimeout, uierrors.KindTimeout},
		{"other", fmt.Errorf("boom"), http.StatusInternalServerError, uierrors.KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := uierrors.Classify(tt.err)
			if status != tt.status || body.Error != tt.kind {
				t.Errorf("Classify = %d/%s, want %d/%s", status, body.Error, tt.status, tt.kind)
			}
			if body.Message == "" {
				t.Error("empty message")
			}
		})
	}
}

func TestHandleError_WritesFields(t *testing.T) {
	el := uierrors.NewErrorLogger(zap.NewNop(), nil)
	rec := testutil.NewRecorder()
	req := testutil.NewAPIRequest(http.MethodPost, "/signup")

	el.HandleError(rec, req, &apperr.ValidationError{
		Message: "phone: too short",
		Fields:  map[string]string{"phone": "too short"},
	}, "signup")

	rec.AssertStatus(t, http.StatusBadRequest)
	var body uierrors.Body
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Fields["phone"] != "too short" {
		t.Errorf("Fields = %v", body.Fields)
	}
}

func TestHandleError_UnauthorizedEndsSession(t *testing.T) {
	called := false
	el := uierrors.NewErrorLogger(zap.NewNop(), func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusSeeOther)
	})
	rec := testutil.NewRecorder()

	el.HandleError(rec, testutil.NewRequest(http.MethodGet, "/me"), &apperr.UnauthorizedError{}, "profile")

	if !called {
		t.Fatal("OnUnauthorized not called")
	}
	rec.AssertStatus(t, http.StatusSeeOther)
}

func TestHandleError_SignInRequiredDoesNotEndSession(t *testing.T) {
	called := false
	el := uierrors.NewErrorLogger(zap.NewNop(), func(http.ResponseWriter, *http.Request) { called = true })
	rec := testutil.NewRecorder()

	el.HandleError(rec, testutil.NewAPIRequest(http.MethodGet, "/profile/3"),
		&visibilitypolicy.ForbiddenVisibility{Reason: visibilitypolicy.ReasonSignInRequired}, "profile")

	if called {
		t.Error("a visibility denial must not log the viewer out")
	}
	rec.AssertStatus(t, http.StatusForbidden)
	rec.AssertContains(t, `"reason":"sign_in_required"`)
}

func TestHandler_NotFound(t *testing.T) {
	rec := testutil.NewRecorder()
	uierrors.NewHandler().NotFound(rec, testutil.NewAPIRequest(http.MethodGet, "/nope"))
	rec.AssertStatus(t, http.StatusNotFound)
	rec.AssertContains(t, `"error":"not_found"`)
}
