// Package visibilitypolicy decides whether a viewer may see a profile.
//
// Rules:
//   - PUBLIC: every viewer, signed in or not
//   - STUDENTS_ONLY: any signed-in viewer; anonymous viewers must sign in
//   - PRIVATE: the profile owner or an administrator
//
// The API enforces the same rules and is authoritative. Resolve is used to
// filter what the API did return; Classify turns what the API refused into
// a ForbiddenVisibility without ever overriding it.
package visibilitypolicy

import (
	"errors"
	"strings"

	"github.com/dalemusser/campuscard/internal/app/system/apperr"
	"github.com/dalemusser/campuscard/internal/app/system/auth"
	"github.com/dalemusser/campuscard/internal/domain/models"
)

// Reason says why a profile was withheld.
type Reason string

const (
	ReasonPrivate        Reason = "private"
	ReasonSignInRequired Reason = "sign_in_required"
	ReasonNotFound       Reason = "not_found"
)

// ErrForbiddenVisibility matches every *ForbiddenVisibility.
var ErrForbiddenVisibility = errors.New("profile not visible")

// ForbiddenVisibility reports a withheld profile.
type ForbiddenVisibility struct {
	Reason  Reason
	Message string
}

func (e *ForbiddenVisibility) Error() string {
	if e.Message != "" {
		return "profile not visible (" + string(e.Reason) + "): " + e.Message
	}
	return "profile not visible (" + string(e.Reason) + ")"
}

func (e *ForbiddenVisibility) Is(target error) bool { return target == ErrForbiddenVisibility }

// Viewer is who is looking at a profile.
type Viewer struct {
	Authenticated bool
	UserID        models.ID
	Role          models.Role
}

// Anonymous is the signed-out viewer.
var Anonymous = Viewer{}

// ViewerFrom derives the viewer from a session, which may be nil.
func ViewerFrom(s *auth.Session) Viewer {
	if !s.Authenticated() {
		return Anonymous
	}
	return Viewer{Authenticated: true, UserID: s.UserID, Role: s.Role}
}

// Resolve applies the rules to a profile owned by ownerID. It returns nil
// when the viewer may see it. An unrecognized tier is treated as PRIVATE.
func Resolve(vis models.Visibility, v Viewer, ownerID models.ID) error {
	switch vis {
	case models.VisibilityPublic:
		return nil
	case models.VisibilityStudentsOnly:
		if v.Authenticated {
			return nil
		}
		return &ForbiddenVisibility{Reason: ReasonSignInRequired}
	}
	if v.Authenticated && (v.Role == models.RoleAdmin || (ownerID != "" && v.UserID == ownerID)) {
		return nil
	}
	return &ForbiddenVisibility{Reason: ReasonPrivate}
}

// Filter checks a profile the API returned. The API allowing a profile
// does not bypass the rules.
func Filter(p models.Profile, v Viewer) (models.Profile, error) {
	if err := Resolve(p.Visibility, v, p.UserID); err != nil {
		return models.Profile{}, err
	}
	return p, nil
}

// Classify maps an API error from a profile fetch onto ForbiddenVisibility.
// Errors that are not profile denials are returned unchanged, including a
// 401 on a signed-in viewer's call, which must still end the session.
func Classify(err error, v Viewer) error {
	if err == nil {
		return nil
	}

	var fe *apperr.ForbiddenError
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return &ForbiddenVisibility{Reason: ReasonNotFound, Message: messageOf(err)}
	case errors.As(err, &fe):
		return &ForbiddenVisibility{Reason: reasonFromBody(fe.Body), Message: fe.Message}
	case errors.Is(err, apperr.ErrUnauthorized) && !v.Authenticated:
		return &ForbiddenVisibility{Reason: ReasonSignInRequired}
	}
	return err
}

// reasonFromBody reads the denial reason of a 403. Signing in is only
// suggested when the API says the profile is for students; any other
// refusal, including one with no body, reads as private whoever asks.
func reasonFromBody(body map[string]any) Reason {
	if s, ok := body["visibility"].(string); ok {
		switch vis, _ := models.ParseVisibility(s); vis {
		case models.VisibilityStudentsOnly:
			return ReasonSignInRequired
		case models.VisibilityPrivate:
			return ReasonPrivate
		}
	}
	if s, ok := body["reason"].(string); ok {
		switch Reason(strings.ToLower(s)) {
		case ReasonSignInRequired:
			return ReasonSignInRequired
		case ReasonNotFound:
			return ReasonNotFound
		case ReasonPrivate:
			return ReasonPrivate
		}
	}
	return ReasonPrivate
}

func messageOf(err error) string {
	var nf *apperr.NotFoundError
	if errors.As(err, &nf) {
		return nf.Message
	}
	return ""
}
