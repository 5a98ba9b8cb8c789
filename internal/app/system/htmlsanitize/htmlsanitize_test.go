package htmlsanitize_test

import (
	"strings"
	"testing"

	"github.com/dalemusser/campuscard/internal/app/system/htmlsanitize"
	"github.com/dalemusser/campuscard/internal/domain/models"
)

func TestSanitize_Empty(t *testing.T) {
	if result := htmlsanitize.Sanitize(""); result != "" {
		t.Errorf("expected empty string, got %q", result)
	}
}

func TestSanitize_KeepsFormatting(t *testing.T) {
	input := "<p><strong>CS</strong> student, <em>robotics</em> club</p><ul><li>Go</li><li>C</li></ul>"
	if result := htmlsanitize.Sanitize(input); result != input {
		t.Errorf("expected formatting preserved, got %q", result)
	}
}

func TestSanitize_RemovesScript(t *testing.T) {
	result := htmlsanitize.Sanitize("<p>Hello</p><script>alert('xss')</script>")
	if result != "<p>Hello</p>" {
		t.Errorf("expected script removed, got %q", result)
	}
}

func TestSanitize_RemovesDangerousMarkup(t *testing.T) {
	tests := []struct {
		name  string
		input string
		bad   string
	}{
		{"onclick", `<p onclick="alert(1)">Hi</p>`, "onclick"},
		{"javascript href", `<a href="javascript:alert(1)">x</a>`, "javascript:"},
		{"iframe", `<p>Hi</p><iframe src="https://evil.example"></iframe>`, "iframe"},
		{"style", `<style>body{}</style><p>Hi</p>`, "<style>"},
		{"img onerror", `<img src=x onerror="alert(1)">`, "onerror"},
		{"headings", `<h1>Shout</h1>`, "<h1>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := htmlsanitize.Sanitize(tt.input); strings.Contains(result, tt.bad) {
				t.Errorf("Sanitize(%q) = %q still contains %q", tt.input, result, tt.bad)
			}
		})
	}
}

func TestSanitize_LinksGetNofollow(t *testing.T) {
	result := htmlsanitize.Sanitize(`<a href="https://github.com/sam">GitHub</a>`)
	if !strings.Contains(result, `href="https://github.com/sam"`) || !strings.Contains(result, "nofollow") {
		t.Errorf("got %q", result)
	}
}

func TestStripTags(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"Sam", "Sam"},
		{"<b>Sam</b> O'Brien", "Sam O'Brien"},
		{"Tom & Jerry", "Tom & Jerry"},
		{"<script>alert(1)</script>Eve", "Eve"},
	}
	for _, tt := range tests {
		if got := htmlsanitize.StripTags(tt.in); got != tt.want {
			t.Errorf("StripTags(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestProfile(t *testing.T) {
	p := htmlsanitize.Profile(models.Profile{
		UserID:       "7",
		FirstName:    "<i>Sam</i>",
		Bio:          "<p>Hi</p><script>x()</script>",
		LinkedIn:     "javascript:alert(1)",
		GitHub:       "https://github.com/sam",
		ProfilePhoto: "/uploads/7.jpg",
		Visibility:   models.VisibilityPublic,
	})

	if p.FirstName != "Sam" {
		t.Errorf("FirstName = %q", p.FirstName)
	}
	if p.Bio != "<p>Hi</p>" {
		t.Errorf("Bio = %q", p.Bio)
	}
	if p.LinkedIn != "" {
		t.Errorf("LinkedIn = %q, want dropped", p.LinkedIn)
	}
	if p.GitHub != "https://github.com/sam" || p.ProfilePhoto != "/uploads/7.jpg" {
		t.Errorf("URLs = %q, %q", p.GitHub, p.ProfilePhoto)
	}
	if p.UserID != "7" || p.Visibility != models.VisibilityPublic {
		t.Error("non-text fields changed")
	}
}
