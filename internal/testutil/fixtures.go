package testutil

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/campuscard/internal/app/system/apiclient"
	"github.com/dalemusser/campuscard/internal/app/system/auth"
	"github.com/dalemusser/campuscard/internal/domain/models"
	"go.uber.org/zap"
)

// SessionKey is the signing key used by test session managers.
const SessionKey = "0123456789abcdef0123456789abcdef"

// SessionCookieName is the cookie name used by test session managers.
const SessionCookieName = "campuscard-test"

// NewSessionManager returns a session manager for insecure test cookies.
func NewSessionManager(t *testing.T) *auth.SessionManager {
	t.Helper()
	sm, err := auth.NewSessionManager(SessionKey, SessionCookieName, "", time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	return sm
}

// NewAPIClient returns a client pointed at api.
func NewAPIClient(t *testing.T, api *FakeAPI) *apiclient.Client {
	t.Helper()
	c, err := apiclient.New(api.URL(), zap.NewNop())
	if err != nil {
		t.Fatalf("apiclient.New: %v", err)
	}
	return c
}

// SessionFromResponse reads back the session a handler stored in its
// response cookies.
func SessionFromResponse(t *testing.T, sm *auth.SessionManager, rec *httptest.ResponseRecorder) *auth.Session {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return sm.Load(req)
}

// Seed is the standard cast of the fake API.
type Seed struct {
	Admin    models.ID
	Student  models.ID // approved, public profile
	Pending  models.ID // pending, unverified
	Private  models.ID // approved, private profile
	Password string
}

// SeedUsers adds the standard cast to api. Every account shares one
// password.
func SeedUsers(api *FakeAPI) Seed {
	s := Seed{Password: "correct-horse"}
	s.Admin = api.AddUser(models.User{
		FirstName: "Ada", LastName: "Admin", Email: "admin@campus.edu",
		Role: models.RoleAdmin, Status: models.StatusApproved, EmailVerified: true,
	}, s.Password)
	s.Student = api.AddUser(models.User{
		FirstName: "Sam", LastName: "Student", Email: "sam@campus.edu", NationalID: "29901011234567",
		Role: models.RoleStudent, Status: models.StatusApproved, EmailVerified: true,
		Faculty: "Engineering", Department: "Computer Engineering", Year: 3,
	}, s.Password)
	s.Pending = api.AddUser(models.User{
		FirstName: "Pat", LastName: "Pending", Email: "pat@campus.edu",
		Role: models.RoleStudent, Status: models.StatusPending,
	}, s.Password)
	s.Private = api.AddUser(models.User{
		FirstName: "Priya", LastName: "Private", Email: "priya@campus.edu",
		Role: models.RoleStudent, Status: models.StatusApproved, EmailVerified: true,
		Visibility: models.VisibilityPrivate,
	}, s.Password)
	return s
}

// SessionFor logs id in against api and returns the matching session.
func SessionFor(api *FakeAPI, id models.ID) *auth.Session {
	u := api.User(id)
	return &auth.Session{
		Token:  api.IssueToken(id),
		UserID: id,
		Email:  u.Email,
		Role:   u.Role,
		Status: u.Status,
	}
}
