// internal/app/system/search/search.go
package search

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lower-cases s and strips diacritics so "José" matches "jose".
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}

// Matches reports whether every word of query occurs in at least one of
// fields. An empty query matches everything.
//
// Typical usage in list handlers:
//
//	if search.Matches(q, u.FirstName, u.LastName, u.Email) {
//	    rows = append(rows, u)
//	}
func Matches(query string, fields ...string) bool {
	words := strings.Fields(Fold(query))
	if len(words) == 0 {
		return true
	}
	folded := make([]string, len(fields))
	for i, f := range fields {
		folded[i] = Fold(f)
	}
	for _, w := range words {
		if !containsAny(folded, w) {
			return false
		}
	}
	return true
}

func containsAny(fields []string, word string) bool {
	for _, f := range fields {
		if strings.Contains(f, word) {
			return true
		}
	}
	return false
}

// EqualsAnyFold reports whether s equals one of vals, ignoring case and
// surrounding space.
func EqualsAnyFold(s string, vals ...string) bool {
	s = strings.TrimSpace(strings.ToLower(s))
	for _, v := range vals {
		if s == strings.ToLower(v) {
			return true
		}
	}
	return false
}
