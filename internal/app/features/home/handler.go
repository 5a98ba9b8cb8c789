package home

import (
	"context"
	"net/http"
	"sort"
	"strings"

	uierrors "github.com/dalemusser/campuscard/internal/app/features/errors"
	"github.com/dalemusser/campuscard/internal/app/features/shared/respond"
	"github.com/dalemusser/campuscard/internal/app/policy/visibilitypolicy"
	"github.com/dalemusser/campuscard/internal/app/system/dircache"
	"github.com/dalemusser/campuscard/internal/app/system/htmlsanitize"
	"github.com/dalemusser/campuscard/internal/app/system/paging"
	"github.com/dalemusser/campuscard/internal/app/system/search"
	"github.com/dalemusser/campuscard/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.uber.org/zap"
)

// API is the part of the CampusCard API the directory needs.
type API interface {
	PublicStudents(ctx context.Context) ([]models.Profile, error)
}

// Handler holds dependencies needed to serve the student directory.
type Handler struct {
	API    API
	Cache  *dircache.Cache
	ErrLog *uierrors.ErrorLogger
	Log    *zap.Logger
}

func NewHandler(api API, cache *dircache.Cache, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		API:    api,
		Cache:  cache,
		ErrLog: errLog,
		Log:    logger,
	}
}

type directoryView struct {
	Query   string `json:"query,omitempty"`
	Faculty string `json:"faculty,omitempty"`
	paging.Page[models.Profile]
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET / and GET /directory – public student directory                         |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeDirectory(w http.ResponseWriter, r *http.Request) {
	all, err := dircache.Fetch(r.Context(), h.Cache, dircache.DirectoryKey, h.API.PublicStudents)
	if err != nil {
		h.ErrLog.HandleError(w, r, err, "list directory")
		return
	}

	q := query.Get(r, "q")
	faculty := query.Get(r, "faculty")

	rows := make([]models.Profile, 0, len(all))
	for _, p := range all {
		// The listing is public, so every entry must be visible to an
		// anonymous visitor whatever the API sent.
		if visibilitypolicy.Resolve(p.Visibility, visibilitypolicy.Anonymous, p.UserID) != nil {
			continue
		}
		if p.Status != models.StatusUnknown && p.Status != models.StatusApproved {
			continue
		}
		p = htmlsanitize.Profile(p)
		if faculty != "" && !search.EqualsAnyFold(p.Faculty, faculty) {
			continue
		}
		if !search.Matches(q, p.FirstName, p.LastName, p.Faculty, p.Department, p.Interests) {
			continue
		}
		// Contact details stay on the profile card.
		p.Email, p.Phone = "", ""
		rows = append(rows, p)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a := strings.ToLower(rows[i].LastName + " " + rows[i].FirstName)
		b := strings.ToLower(rows[j].LastName + " " + rows[j].FirstName)
		return a < b
	})

	respond.JSON(w, http.StatusOK, directoryView{
		Query:   q,
		Faculty: faculty,
		Page:    paging.Slice(rows, paging.ParseStart(r)),
	})
}
