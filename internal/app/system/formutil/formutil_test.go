package formutil

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/campuscard/internal/app/system/apperr"
)

func post(body, contentType string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
	r.Header.Set("Content-Type", contentType)
	return r
}

func TestValues(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		contentType string
		want        map[string]string
	}{
		{
			name:        "json",
			body:        `{"identifier":" sam@campus.edu ","password":"pw"}`,
			contentType: "application/json",
			want:        map[string]string{"identifier": "sam@campus.edu", "password": "pw"},
		},
		{
			name:        "json with charset, numbers and bools",
			body:        `{"userId":101,"approved":true,"rejectionReason":null}`,
			contentType: "application/json; charset=utf-8",
			want:        map[string]string{"userId": "101", "approved": "true"},
		},
		{
			name:        "urlencoded",
			body:        "identifier=sam%40campus.edu&password=pw",
			contentType: "application/x-www-form-urlencoded",
			want:        map[string]string{"identifier": "sam@campus.edu", "password": "pw"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Values(httptest.NewRecorder(), post(tt.body, tt.contentType), 1<<10)
			if err != nil {
				t.Fatalf("Values: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Values = %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("%s = %q, want %q", k, got[k], v)
				}
			}
		})
	}
}

func TestValues_Malformed(t *testing.T) {
	for _, body := range []string{`{"identifier":`, `["a"]`, `{"role":{"x":1}}`} {
		_, err := Values(httptest.NewRecorder(), post(body, "application/json"), 1<<10)
		if !errors.Is(err, apperr.ErrValidation) {
			t.Errorf("Values(%q) err = %v, want ErrValidation", body, err)
		}
	}
}

func TestValues_TooLarge(t *testing.T) {
	body := `{"reason":"` + strings.Repeat("x", 2048) + `"}`
	_, err := Values(httptest.NewRecorder(), post(body, "application/json"), 256)
	if !errors.Is(err, ErrBodyTooLarge) {
		t.Fatalf("err = %v, want ErrBodyTooLarge", err)
	}
	var ve *apperr.ValidationError
	if !errors.As(err, &ve) {
		t.Error("oversized body should still be a ValidationError")
	}
}

func TestFirst(t *testing.T) {
	vals := map[string]string{"email": "", "identifier": "sam"}
	if got := First(vals, "email", "identifier"); got != "sam" {
		t.Errorf("First = %q", got)
	}
	if got := First(vals, "missing"); got != "" {
		t.Errorf("First = %q, want empty", got)
	}
}
