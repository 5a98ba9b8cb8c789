// Package respond writes the success side of console responses.
// Failures go through features/errors.
package respond

import (
	"encoding/json"
	"net/http"

	"github.com/dalemusser/campuscard/internal/app/system/navigation"
)

// JSON writes v with status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Landing is the body returned to API callers in place of a redirect.
type Landing struct {
	Redirect string `json:"redirect"`
	Message  string `json:"message,omitempty"`
}

// Navigate sends page navigations to target and answers API callers
// with a Landing naming it.
func Navigate(w http.ResponseWriter, r *http.Request, target, message string) {
	if navigation.WantsHTML(r) {
		navigation.Redirect(w, r, target)
		return
	}
	JSON(w, http.StatusOK, Landing{Redirect: target, Message: message})
}
