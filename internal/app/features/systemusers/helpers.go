// internal/app/features/systemusers/helpers.go
package systemusers

import (
	"net/http"
	"sort"
	"strings"

	"github.com/dalemusser/campuscard/internal/domain/lifecycle"
	"github.com/dalemusser/campuscard/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

const listPath = "/admin/users"

func userPath(id models.ID) string { return listPath + "/" + id.String() }

// userIDParam reads the {id} route parameter.
func userIDParam(r *http.Request) models.ID {
	return models.ID(strings.TrimSpace(chi.URLParam(r, "id")))
}

// sortRows orders accounts by last name, first name, then ID.
func sortRows(users []models.User) {
	sort.SliceStable(users, func(i, j int) bool {
		a, b := users[i], users[j]
		if x, y := strings.ToLower(a.LastName), strings.ToLower(b.LastName); x != y {
			return x < y
		}
		if x, y := strings.ToLower(a.FirstName), strings.ToLower(b.FirstName); x != y {
			return x < y
		}
		return a.ID < b.ID
	})
}

// sortByRegistration orders accounts by registration date, oldest first.
// Accounts without a date keep their relative order at the end.
func sortByRegistration(users []models.User) {
	sort.SliceStable(users, func(i, j int) bool {
		a, b := users[i].RegistrationDate, users[j].RegistrationDate
		switch {
		case a == "":
			return false
		case b == "":
			return true
		}
		return a < b
	})
}

// availableActions lists what an administrator may do to u from the
// console. The API still has the final say.
func availableActions(actor models.ID, u models.User) []string {
	s := lifecycle.FromUser(u)
	actions := []string{}
	if _, changed, err := lifecycle.Approve(s); err == nil && changed {
		actions = append(actions, "approve")
	}
	if _, err := lifecycle.Reject(s, ""); err == nil {
		actions = append(actions, "reject")
	}
	if lifecycle.CanSendVerification(s) == nil {
		actions = append(actions, "send-verification")
	}
	if lifecycle.CanConfirmVerification(s) == nil {
		actions = append(actions, "verify-email")
	}
	if lifecycle.CheckRoleActor(actor, u.ID) == nil {
		actions = append(actions, "change-role")
	}
	return actions
}
