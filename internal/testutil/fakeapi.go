package testutil

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/dalemusser/campuscard/internal/domain/lifecycle"
	"github.com/dalemusser/campuscard/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// FakeAPI is an in-process CampusCard API for tests. Lifecycle
// transitions run through lifecycle.Machine, so it enforces the same
// rules the console mirrors.
type FakeAPI struct {
	Server *httptest.Server

	// TestingMode echoes verification tokens in send-verification
	// responses, as the real API does in testing mode.
	TestingMode bool

	mu       sync.Mutex
	nextID   int
	records  map[models.ID]*fakeAccount
	tokens   map[string]models.ID
	calls    []string
	forced   map[string]forcedResponse
	machine  *lifecycle.Machine
	lastSent map[models.ID]string
}

type fakeAccount struct {
	rec      lifecycle.Record
	password string
	profile  models.Profile
}

type forcedResponse struct {
	status int
	body   string
}

// NewFakeAPI starts a FakeAPI that is closed when t ends.
func NewFakeAPI(t *testing.T) *FakeAPI {
	t.Helper()
	f := &FakeAPI{
		TestingMode: true,
		nextID:      100,
		records:     make(map[models.ID]*fakeAccount),
		tokens:      make(map[string]models.ID),
		forced:      make(map[string]forcedResponse),
		lastSent:    make(map[models.ID]string),
	}
	f.machine = lifecycle.NewMachine(fakeRepo{f}, fakeDispatcher{f})
	f.Server = httptest.NewServer(f.routes())
	t.Cleanup(f.Server.Close)
	return f
}

// URL is the base URL of the fake API.
func (f *FakeAPI) URL() string { return f.Server.URL }

// AddUser stores u with password and returns its id. A blank id is
// assigned; a zero profile visibility defaults to PUBLIC.
func (f *FakeAPI) AddUser(u models.User, password string) models.ID {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u.ID == "" {
		f.nextID++
		u.ID = models.ID(strconv.Itoa(f.nextID))
	}
	if u.Visibility == models.VisibilityUnknown {
		u.Visibility = models.VisibilityPublic
	}
	f.records[u.ID] = &fakeAccount{
		rec:      lifecycle.Record{User: u},
		password: password,
		profile: models.Profile{
			UserID:     u.ID,
			FirstName:  u.FirstName,
			LastName:   u.LastName,
			Email:      u.Email,
			Faculty:    u.Faculty,
			Department: u.Department,
			Year:       u.Year,
			Visibility: u.Visibility,
			Bio:        "Hello from " + u.FirstName,
		},
	}
	return u.ID
}

// SetBio replaces the free-text bio of a user's profile.
func (f *FakeAPI) SetBio(id models.ID, bio string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.records[id]; ok {
		a.profile.Bio = bio
	}
}

// IssueToken returns a bearer token for id, as if the user logged in.
func (f *FakeAPI) IssueToken(id models.ID) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	tok := uuid.NewString()
	f.tokens[tok] = id
	return tok
}

// ExpireToken makes every later call with tok answer 401.
func (f *FakeAPI) ExpireToken(tok string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tokens, tok)
}

// User returns the stored record for id.
func (f *FakeAPI) User(id models.ID) models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.records[id]; ok {
		return a.rec.User
	}
	return models.User{}
}

// SetStatus changes a user's status behind the console's back.
func (f *FakeAPI) SetStatus(id models.ID, s models.Status) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.records[id]; ok {
		a.rec.User.Status = s
	}
}

// LastVerificationToken returns the plain token most recently dispatched
// to id.
func (f *FakeAPI) LastVerificationToken(id models.ID) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastSent[id]
}

// Force makes "METHOD /path" answer status with body until cleared with
// status 0.
func (f *FakeAPI) Force(methodPath string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if status == 0 {
		delete(f.forced, methodPath)
		return
	}
	f.forced[methodPath] = forcedResponse{status: status, body: body}
}

// Calls returns "METHOD /path" for every request received so far.
func (f *FakeAPI) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// CallCount counts received requests matching "METHOD /path".
func (f *FakeAPI) CallCount(methodPath string) int {
	n := 0
	for _, c := range f.Calls() {
		if c == methodPath {
			n++
		}
	}
	return n
}

func (f *FakeAPI) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(f.record)

	r.Post("/api/login", f.login)
	r.Post("/api/signup", f.signup)
	r.Get("/api/public/faculties", f.faculties)
	r.Get("/api/public/departments", f.departments)

	r.Get("/api/profile", f.myProfile)
	r.Get("/api/profile/public-students", f.publicStudents)
	r.Get("/api/profile/{id}", f.profile)

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(f.requireAdmin)
		r.Get("/dashboard/stats", f.stats)
		r.Get("/users", f.listUsers(false))
		r.Get("/users/pending", f.listUsers(true))
		r.Get("/users/{id}", f.getUser)
		r.Post("/users/approve-reject", f.approveReject)
		r.Post("/users/{id}/send-verification", f.sendVerification)
		r.Post("/users/{id}/verify-email/{token}", f.verifyEmail)
		r.Post("/users/{id}/change-role", f.changeRole)
	})
	return r
}

func (f *FakeAPI) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		f.mu.Lock()
		f.calls = append(f.calls, key)
		forced, ok := f.forced[key]
		f.mu.Unlock()
		if ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(forced.status)
			_, _ = w.Write([]byte(forced.body))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// caller resolves the bearer token. ok is false for anonymous requests;
// valid is false for a token the API does not know.
func (f *FakeAPI) caller(r *http.Request) (u models.User, ok, valid bool) {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return models.User{}, false, true
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	id, known := f.tokens[strings.TrimPrefix(h, "Bearer ")]
	if !known {
		return models.User{}, true, false
	}
	a, exists := f.records[id]
	if !exists {
		return models.User{}, true, false
	}
	return a.rec.User, true, true
}

func (f *FakeAPI) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok, valid := f.caller(r)
		if !ok || !valid {
			writeFakeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Full authentication is required"})
			return
		}
		if u.Role != models.RoleAdmin {
			writeFakeJSON(w, http.StatusForbidden, map[string]any{"message": "Access denied"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *FakeAPI) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Identifier string `json:"identifier"`
		Password   string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFakeJSON(w, http.StatusBadRequest, map[string]any{"message": "identifier: must not be blank"})
		return
	}

	f.mu.Lock()
	var found *fakeAccount
	for _, a := range f.records {
		u := a.rec.User
		if strings.EqualFold(u.Email, req.Identifier) || (u.NationalID != "" && u.NationalID == req.Identifier) {
			found = a
			break
		}
	}
	f.mu.Unlock()

	if found == nil || found.password != req.Password {
		writeFakeJSON(w, http.StatusUnauthorized, map[string]any{"token": "ERROR", "message": "Invalid credentials"})
		return
	}
	u := found.rec.User
	tok := f.IssueToken(u.ID)
	writeFakeJSON(w, http.StatusOK, map[string]any{
		"token":   tok,
		"id":      u.ID,
		"email":   u.Email,
		"role":    strings.ToLower(string(u.Role)),
		"status":  string(u.Status),
		"message": "Login successful",
	})
}

func (f *FakeAPI) signup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		writeFakeJSON(w, http.StatusBadRequest, map[string]any{"message": "expected multipart form"})
		return
	}
	email := r.FormValue("email")
	if email == "" {
		writeFakeJSON(w, http.StatusBadRequest, map[string]any{"message": "email: must not be blank"})
		return
	}
	id := f.AddUser(models.User{
		FirstName: r.FormValue("firstName"),
		LastName:  r.FormValue("lastName"),
		Email:     email,
		Role:      models.RoleStudent,
		Status:    models.StatusPending,
	}, r.FormValue("password"))
	writeFakeJSON(w, http.StatusCreated, map[string]any{
		"id":      id,
		"email":   email,
		"status":  string(models.StatusPending),
		"message": "Registration submitted",
	})
}

func (f *FakeAPI) faculties(w http.ResponseWriter, r *http.Request) {
	writeFakeJSON(w, http.StatusOK, []models.Faculty{
		{ID: "1", Name: "Engineering"},
		{ID: "2", Name: "Science"},
	})
}

func (f *FakeAPI) departments(w http.ResponseWriter, r *http.Request) {
	all := []models.Department{
		{ID: "10", Name: "Computer Engineering", FacultyID: "1"},
		{ID: "20", Name: "Physics", FacultyID: "2"},
	}
	fid := models.ID(r.URL.Query().Get("facultyId"))
	var out []models.Department
	for _, d := range all {
		if fid == "" || d.FacultyID == fid {
			out = append(out, d)
		}
	}
	writeFakeJSON(w, http.StatusOK, out)
}

func (f *FakeAPI) myProfile(w http.ResponseWriter, r *http.Request) {
	u, ok, valid := f.caller(r)
	if !ok || !valid {
		writeFakeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Full authentication is required"})
		return
	}
	f.mu.Lock()
	p := f.records[u.ID].profile
	f.mu.Unlock()
	p.Role = u.Role
	p.Status = u.Status
	writeFakeJSON(w, http.StatusOK, p)
}

func (f *FakeAPI) publicStudents(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	var out []models.Profile
	for _, a := range f.records {
		u := a.rec.User
		if u.Role == models.RoleStudent && u.Status == models.StatusApproved && a.profile.Visibility == models.VisibilityPublic {
			out = append(out, a.profile)
		}
	}
	f.mu.Unlock()
	writeFakeJSON(w, http.StatusOK, out)
}

func (f *FakeAPI) profile(w http.ResponseWriter, r *http.Request) {
	viewer, authed, valid := f.caller(r)
	if authed && !valid {
		writeFakeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Invalid token"})
		return
	}
	id := models.ID(chi.URLParam(r, "id"))

	f.mu.Lock()
	a, ok := f.records[id]
	var p models.Profile
	if ok {
		p = a.profile
	}
	f.mu.Unlock()

	if !ok {
		writeFakeJSON(w, http.StatusNotFound, map[string]any{"message": "Profile not found"})
		return
	}
	switch p.Visibility {
	case models.VisibilityStudentsOnly:
		if !authed {
			writeFakeJSON(w, http.StatusForbidden, map[string]any{"message": "Sign in to view this profile", "visibility": "students_only"})
			return
		}
	case models.VisibilityPrivate:
		if viewer.ID != id && viewer.Role != models.RoleAdmin {
			writeFakeJSON(w, http.StatusForbidden, map[string]any{"message": "This profile is private", "visibility": "private"})
			return
		}
	}
	writeFakeJSON(w, http.StatusOK, p)
}

func (f *FakeAPI) stats(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	var s models.DashboardStats
	for _, a := range f.records {
		u := a.rec.User
		s.TotalUsers++
		switch u.Status {
		case models.StatusPending:
			s.PendingApprovals++
		case models.StatusApproved:
			s.ApprovedUsers++
		case models.StatusRejected:
			s.RejectedUsers++
		}
		if u.Role == models.RoleAdmin {
			s.AdminsCount++
		} else {
			s.StudentsCount++
		}
		if u.EmailVerified {
			s.VerifiedEmails++
		} else {
			s.UnverifiedEmails++
		}
	}
	f.mu.Unlock()
	writeFakeJSON(w, http.StatusOK, s)
}

func (f *FakeAPI) listUsers(pendingOnly bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		out := make([]models.User, 0, len(f.records))
		for _, a := range f.records {
			if pendingOnly && a.rec.User.Status != models.StatusPending {
				continue
			}
			out = append(out, a.rec.User)
		}
		f.mu.Unlock()
		writeFakeJSON(w, http.StatusOK, out)
	}
}

func (f *FakeAPI) getUser(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	a, ok := f.records[models.ID(chi.URLParam(r, "id"))]
	var u models.User
	if ok {
		u = a.rec.User
	}
	f.mu.Unlock()
	if !ok {
		writeFakeJSON(w, http.StatusNotFound, map[string]any{"message": "User not found"})
		return
	}
	writeFakeJSON(w, http.StatusOK, u)
}

func (f *FakeAPI) approveReject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID          models.ID `json:"userId"`
		Approved        bool      `json:"approved"`
		RejectionReason string    `json:"rejectionReason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		writeFakeJSON(w, http.StatusBadRequest, map[string]any{"message": "userId: must not be null"})
		return
	}
	var (
		u   models.User
		err error
	)
	if req.Approved {
		u, err = f.machine.Approve(r.Context(), req.UserID)
	} else {
		u, err = f.machine.Reject(r.Context(), req.UserID, req.RejectionReason)
	}
	f.writeTransition(w, u, err)
}

func (f *FakeAPI) sendVerification(w http.ResponseWriter, r *http.Request) {
	id := models.ID(chi.URLParam(r, "id"))
	tok, err := f.machine.SendVerification(r.Context(), id)
	if err != nil {
		f.writeTransition(w, models.User{}, err)
		return
	}
	body := map[string]any{"message": "Verification email sent successfully"}
	if f.TestingMode {
		body["message"] = "Verification email sent (testing mode)"
		body["token"] = tok
		body["userId"] = id
	}
	writeFakeJSON(w, http.StatusOK, body)
}

func (f *FakeAPI) verifyEmail(w http.ResponseWriter, r *http.Request) {
	_, err := f.machine.ConfirmVerification(r.Context(), models.ID(chi.URLParam(r, "id")), chi.URLParam(r, "token"))
	if err != nil {
		f.writeTransition(w, models.User{}, err)
		return
	}
	writeFakeJSON(w, http.StatusOK, map[string]any{"message": "Email verified successfully"})
}

func (f *FakeAPI) changeRole(w http.ResponseWriter, r *http.Request) {
	actor, _, _ := f.caller(r)
	var req struct {
		Role string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFakeJSON(w, http.StatusBadRequest, map[string]any{"message": "role: must not be blank"})
		return
	}
	role, ok := models.ParseRole(req.Role)
	if !ok {
		writeFakeJSON(w, http.StatusBadRequest, map[string]any{"message": "Invalid role: " + req.Role})
		return
	}
	u, err := f.machine.ChangeRole(r.Context(), actor.ID, models.ID(chi.URLParam(r, "id")), role)
	f.writeTransition(w, u, err)
}

func (f *FakeAPI) writeTransition(w http.ResponseWriter, u models.User, err error) {
	switch {
	case err == nil:
		writeFakeJSON(w, http.StatusOK, u)
	case errors.Is(err, lifecycle.ErrUserNotFound):
		writeFakeJSON(w, http.StatusNotFound, map[string]any{"message": "User not found"})
	default:
		writeFakeJSON(w, http.StatusBadRequest, map[string]any{"message": err.Error()})
	}
}

func writeFakeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type fakeRepo struct{ f *FakeAPI }

func (r fakeRepo) Load(_ context.Context, id models.ID) (lifecycle.Record, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	a, ok := r.f.records[id]
	if !ok {
		return lifecycle.Record{}, lifecycle.ErrUserNotFound
	}
	return a.rec, nil
}

func (r fakeRepo) Save(_ context.Context, rec lifecycle.Record) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	a, ok := r.f.records[rec.User.ID]
	if !ok {
		return lifecycle.ErrUserNotFound
	}
	a.rec = rec
	return nil
}

type fakeDispatcher struct{ f *FakeAPI }

func (d fakeDispatcher) DispatchVerification(_ context.Context, u models.User, token string) error {
	d.f.mu.Lock()
	defer d.f.mu.Unlock()
	d.f.lastSent[u.ID] = token
	return nil
}
