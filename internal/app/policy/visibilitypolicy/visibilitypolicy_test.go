package visibilitypolicy

import (
	"errors"
	"fmt"
	"testing"

	"github.com/dalemusser/campuscard/internal/app/system/apperr"
	"github.com/dalemusser/campuscard/internal/app/system/auth"
	"github.com/dalemusser/campuscard/internal/domain/models"
)

var (
	student = Viewer{Authenticated: true, UserID: "2", Role: models.RoleStudent}
	admin   = Viewer{Authenticated: true, UserID: "1", Role: models.RoleAdmin}
	owner   = Viewer{Authenticated: true, UserID: "9", Role: models.RoleStudent}
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name   string
		vis    models.Visibility
		viewer Viewer
		want   Reason // empty means visible
	}{
		{"public anonymous", models.VisibilityPublic, Anonymous, ""},
		{"public student", models.VisibilityPublic, student, ""},
		{"students_only anonymous", models.VisibilityStudentsOnly, Anonymous, ReasonSignInRequired},
		{"students_only student", models.VisibilityStudentsOnly, student, ""},
		{"students_only admin", models.VisibilityStudentsOnly, admin, ""},
		{"private anonymous", models.VisibilityPrivate, Anonymous, ReasonPrivate},
		{"private other student", models.VisibilityPrivate, student, ReasonPrivate},
		{"private owner", models.VisibilityPrivate, owner, ""},
		{"private admin", models.VisibilityPrivate, admin, ""},
		{"unknown tier fails closed", models.VisibilityUnknown, student, ReasonPrivate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Resolve(tt.vis, tt.viewer, "9")
			if tt.want == "" {
				if err != nil {
					t.Fatalf("Resolve = %v, want visible", err)
				}
				return
			}
			var fv *ForbiddenVisibility
			if !errors.As(err, &fv) {
				t.Fatalf("Resolve = %v, want *ForbiddenVisibility", err)
			}
			if fv.Reason != tt.want {
				t.Errorf("Reason = %q, want %q", fv.Reason, tt.want)
			}
		})
	}
}

func TestViewerFrom(t *testing.T) {
	if v := ViewerFrom(nil); v.Authenticated {
		t.Error("nil session should be anonymous")
	}
	v := ViewerFrom(&auth.Session{Token: "t", UserID: "4", Role: models.RoleAdmin})
	if !v.Authenticated || v.UserID != "4" || v.Role != models.RoleAdmin {
		t.Errorf("ViewerFrom = %+v", v)
	}
}

func TestFilter_DeniesEvenWhenAPIReturned(t *testing.T) {
	p := models.Profile{UserID: "9", Visibility: models.VisibilityPrivate, FirstName: "Pat"}

	if _, err := Filter(p, student); !errors.Is(err, ErrForbiddenVisibility) {
		t.Errorf("Filter for other student = %v, want denial", err)
	}
	got, err := Filter(p, owner)
	if err != nil || got.FirstName != "Pat" {
		t.Errorf("Filter for owner = %+v, %v", got, err)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		viewer Viewer
		want   Reason
	}{
		{"404", fmt.Errorf("get profile: %w", &apperr.NotFoundError{Message: "Profile not found"}), student, ReasonNotFound},
		{"403 private", &apperr.ForbiddenError{Body: map[string]any{"visibility": "private"}}, student, ReasonPrivate},
		{"403 students only", &apperr.ForbiddenError{Body: map[string]any{"visibility": "students_only"}}, Anonymous, ReasonSignInRequired},
		{"403 upper-case students only", &apperr.ForbiddenError{Body: map[string]any{"visibility": "STUDENTS_ONLY"}}, Anonymous, ReasonSignInRequired},
		{"403 no body anonymous", &apperr.ForbiddenError{}, Anonymous, ReasonPrivate},
		{"403 message only anonymous", &apperr.ForbiddenError{Message: "Forbidden", Body: map[string]any{"message": "Forbidden"}}, Anonymous, ReasonPrivate},
		{"403 no body signed in", &apperr.ForbiddenError{}, student, ReasonPrivate},
		{"403 explicit reason", &apperr.ForbiddenError{Body: map[string]any{"reason": "not_found"}}, student, ReasonNotFound},
		{"401 anonymous", &apperr.UnauthorizedError{}, Anonymous, ReasonSignInRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var fv *ForbiddenVisibility
			if !errors.As(Classify(tt.err, tt.viewer), &fv) {
				t.Fatalf("Classify(%v) is not ForbiddenVisibility", tt.err)
			}
			if fv.Reason != tt.want {
				t.Errorf("Reason = %q, want %q", fv.Reason, tt.want)
			}
		})
	}
}

func TestClassify_PassesThroughOtherErrors(t *testing.T) {
	unauthorized := &apperr.UnauthorizedError{}
	if got := Classify(unauthorized, student); got != unauthorized {
		t.Errorf("401 for signed-in viewer must pass through, got %v", got)
	}
	server := &apperr.ServerError{StatusCode: 500}
	if got := Classify(server, student); got != server {
		t.Errorf("server error must pass through, got %v", got)
	}
	if Classify(nil, student) != nil {
		t.Error("nil must stay nil")
	}
}
