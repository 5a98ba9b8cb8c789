// Package htmlsanitize cleans user-authored profile text before the
// console hands it to a browser.
//
// Bios may carry light formatting; every other free-text field is reduced
// to plain text.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/dalemusser/campuscard/internal/domain/models"
	"github.com/microcosm-cc/bluemonday"
)

var (
	bioPolicy   = newBioPolicy()
	plainPolicy = bluemonday.StrictPolicy()
)

func newBioPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("p", "br", "strong", "em", "b", "i", "u", "s", "ul", "ol", "li", "blockquote", "code")
	p.AllowStandardURLs()
	p.AllowAttrs("href").OnElements("a")
	p.RequireNoFollowOnLinks(true)
	return p
}

// Sanitize keeps the formatting a bio may use and drops everything else,
// including scripts, event handlers and non-http links.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(bioPolicy.Sanitize(s))
}

// StripTags removes all markup and returns the remaining text unescaped.
func StripTags(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(plainPolicy.Sanitize(s)))
}

// Profile returns p with its free-text fields cleaned.
func Profile(p models.Profile) models.Profile {
	p.FirstName = StripTags(p.FirstName)
	p.LastName = StripTags(p.LastName)
	p.Faculty = StripTags(p.Faculty)
	p.Department = StripTags(p.Department)
	p.Interests = StripTags(p.Interests)
	p.Phone = StripTags(p.Phone)
	p.LinkedIn = safeURL(p.LinkedIn)
	p.GitHub = safeURL(p.GitHub)
	p.ProfilePhoto = safeURL(p.ProfilePhoto)
	p.Bio = Sanitize(p.Bio)
	return p
}

// safeURL keeps only http(s) URLs and site-relative paths.
func safeURL(s string) string {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	switch {
	case strings.HasPrefix(lower, "https://"), strings.HasPrefix(lower, "http://"):
		return s
	case strings.HasPrefix(s, "/") && !strings.HasPrefix(s, "//"):
		return s
	}
	return ""
}
