// Package navigation provides helpers for full-page redirects that work the
// same for plain browser requests and HTMX requests.
package navigation

import (
	"net/http"
	"strings"

	"github.com/dalemusser/waffle/pantry/urlutil"
)

// IsHTMX reports whether r was issued by HTMX.
func IsHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// WantsHTML treats a request as a page navigation if it is HTMX or
// accepts text/html. Everything else is an API caller.
func WantsHTML(r *http.Request) bool {
	if IsHTMX(r) {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

// Redirect sends the browser to target. HTMX gets HX-Redirect so the full
// page swaps instead of a partial; everything else gets a 303.
func Redirect(w http.ResponseWriter, r *http.Request, target string) {
	if IsHTMX(r) {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// SafeTarget returns target if it is a local path, otherwise fallback.
func SafeTarget(target, fallback string) string {
	return urlutil.SafeReturn(target, "", fallback)
}
