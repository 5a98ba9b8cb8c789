// internal/app/features/systemusers/list.go
package systemusers

import (
	"net/http"
	"strings"

	"github.com/dalemusser/campuscard/internal/app/features/shared/respond"
	"github.com/dalemusser/campuscard/internal/app/system/moderation"
	"github.com/dalemusser/campuscard/internal/app/system/paging"
	"github.com/dalemusser/campuscard/internal/app/system/search"
	"github.com/dalemusser/campuscard/internal/app/system/timeouts"
	"github.com/dalemusser/campuscard/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
)

// ServeList handles GET /admin/users.
//
// The API returns every account at once, so search, the status / role /
// verified filters and paging all happen here.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Read(), h.Log, "list users")
	defer cancel()

	users, err := h.Moderation.ListUsers(ctx, moderation.ActorFrom(r))
	if err != nil {
		h.ErrLog.HandleError(w, r, err, "list users")
		return
	}

	q := query.Get(r, "q")
	statusQ := strings.ToUpper(query.Get(r, "status"))
	roleQ := strings.ToUpper(query.Get(r, "role"))
	verifiedQ := strings.ToLower(query.Get(r, "verified"))

	status, statusOK := models.ParseStatus(statusQ)
	role, roleOK := models.ParseRole(roleQ)

	filtered := users[:0]
	for _, u := range users {
		if statusOK && u.Status != status {
			continue
		}
		if roleOK && u.Role != role {
			continue
		}
		switch verifiedQ {
		case "true", "yes":
			if !u.EmailVerified {
				continue
			}
		case "false", "no":
			if u.EmailVerified {
				continue
			}
		}
		if !search.Matches(q, u.FirstName, u.LastName, u.Email, u.NationalID, u.Faculty, u.Department) {
			continue
		}
		filtered = append(filtered, u)
	}
	sortRows(filtered)

	respond.JSON(w, http.StatusOK, listData{
		Query:    q,
		Status:   statusQ,
		Role:     roleQ,
		Verified: verifiedQ,
		Page:     paging.Slice(rows(filtered), paging.ParseStart(r)),
	})
}

// ServePending handles GET /admin/users/pending, the approval queue.
func (h *Handler) ServePending(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Read(), h.Log, "list pending users")
	defer cancel()

	users, err := h.Moderation.ListPending(ctx, moderation.ActorFrom(r))
	if err != nil {
		h.ErrLog.HandleError(w, r, err, "list pending users")
		return
	}

	// Oldest registration first so the queue is worked in order.
	sortRows(users)
	sortByRegistration(users)

	respond.JSON(w, http.StatusOK, listData{
		Status: models.StatusPending.String(),
		Page:   paging.Slice(rows(users), paging.ParseStart(r)),
	})
}

func rows(users []models.User) []userRow {
	out := make([]userRow, 0, len(users))
	for _, u := range users {
		out = append(out, toRow(u))
	}
	return out
}
