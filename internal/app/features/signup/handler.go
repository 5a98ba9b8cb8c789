// internal/app/features/signup/handler.go
package signup

import (
	"context"
	"io"
	"mime"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/campuscard/internal/app/features/errors"
	"github.com/dalemusser/campuscard/internal/app/features/shared/respond"
	"github.com/dalemusser/campuscard/internal/app/system/apiclient"
	"github.com/dalemusser/campuscard/internal/app/system/apperr"
	"github.com/dalemusser/campuscard/internal/app/system/auditlog"
	"github.com/dalemusser/campuscard/internal/app/system/dircache"
	"github.com/dalemusser/campuscard/internal/app/system/limits"
	"github.com/dalemusser/campuscard/internal/domain/models"
	"go.uber.org/zap"
)

// API is the part of the CampusCard API registration needs.
type API interface {
	Signup(ctx context.Context, contentType string, body io.Reader) (apiclient.SignupResult, error)
	Faculties(ctx context.Context) ([]models.Faculty, error)
	Departments(ctx context.Context, facultyID models.ID) ([]models.Department, error)
}

type Handler struct {
	API      API
	Cache    *dircache.Cache
	AuditLog *auditlog.Logger
	ErrLog   *uierrors.ErrorLogger
	Log      *zap.Logger
}

func NewHandler(api API, cache *dircache.Cache, audit *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		API:      api,
		Cache:    cache,
		AuditLog: audit,
		ErrLog:   errLog,
		Log:      logger,
	}
}

type formState struct {
	Faculties []models.Faculty `json:"faculties"`
}

type submitted struct {
	ID      models.ID     `json:"id"`
	Email   string        `json:"email"`
	Status  models.Status `json:"status"`
	Message string        `json:"message,omitempty"`
	Next    string        `json:"next"`
}

// ServeForm handles GET /signup: the choices the registration form needs.
func (h *Handler) ServeForm(w http.ResponseWriter, r *http.Request) {
	faculties, err := dircache.Fetch(r.Context(), h.Cache, dircache.FacultiesKey, h.API.Faculties)
	if err != nil {
		h.ErrLog.HandleError(w, r, err, "signup: list faculties")
		return
	}
	if faculties == nil {
		faculties = []models.Faculty{}
	}
	respond.JSON(w, http.StatusOK, formState{Faculties: faculties})
}

// ServeDepartments handles GET /signup/departments?facultyId=.
func (h *Handler) ServeDepartments(w http.ResponseWriter, r *http.Request) {
	facultyID := strings.TrimSpace(r.URL.Query().Get("facultyId"))
	deps, err := dircache.Fetch(r.Context(), h.Cache, dircache.DepartmentsKey(facultyID),
		func(ctx context.Context) ([]models.Department, error) {
			return h.API.Departments(ctx, models.ID(facultyID))
		})
	if err != nil {
		h.ErrLog.HandleError(w, r, err, "signup: list departments")
		return
	}
	if deps == nil {
		deps = []models.Department{}
	}
	respond.JSON(w, http.StatusOK, deps)
}

// HandleSubmit handles POST /signup. The multipart body (profile fields,
// photo, national id scan) is streamed to the API unchanged.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ct := r.Header.Get("Content-Type")
	if mt, _, err := mime.ParseMediaType(ct); err != nil || mt != "multipart/form-data" {
		h.ErrLog.HandleError(w, r, &apperr.ValidationError{
			Message: "Registration must be submitted as multipart/form-data.",
		}, "signup")
		return
	}
	if r.ContentLength > limits.MaxSignupBodySize {
		h.ErrLog.HandleError(w, r, &apperr.ValidationError{
			Message: "Registration is too large. Photos must be smaller.",
		}, "signup")
		return
	}
	body := http.MaxBytesReader(w, r.Body, limits.MaxSignupBodySize)
	defer body.Close()

	res, err := h.API.Signup(r.Context(), ct, body)
	h.AuditLog.SignupSubmitted(r.Context(), r, res.ID, res.Email, err)
	if err != nil {
		h.ErrLog.HandleError(w, r, err, "signup")
		return
	}

	h.Log.Info("registration submitted",
		zap.String("user_id", res.ID.String()),
		zap.String("status", res.Status.String()))

	if res.Status == models.StatusUnknown {
		res.Status = models.StatusPending
	}
	respond.JSON(w, http.StatusCreated, submitted{
		ID:      res.ID,
		Email:   res.Email,
		Status:  res.Status,
		Message: res.Message,
		Next:    "/login",
	})
}
