// Package inputval checks user-submitted input before it is sent to the
// CampusCard API. Struct checks run through go-playground/validator with
// a "label" tag naming the field in messages.
package inputval

import (
	"net/mail"
	"net/url"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/dalemusser/campuscard/internal/app/system/apperr"
	"github.com/go-playground/validator/v10"
)

// MaxNationalIDLength matches the column size on the API side.
const MaxNationalIDLength = 50

// IsValidEmail reports whether s is a bare address (no display name).
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s || addr.Name != "" {
		return false
	}
	at := strings.LastIndex(s, "@")
	local, domain := s[:at], s[at+1:]
	for _, part := range []string{local, domain} {
		if part == "" || strings.HasPrefix(part, ".") || strings.HasSuffix(part, ".") || strings.Contains(part, "..") {
			return false
		}
	}
	return !strings.ContainsAny(s, " \t")
}

// IsValidNationalID reports whether s looks like a national id: letters,
// digits and hyphens, at most MaxNationalIDLength long.
func IsValidNationalID(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > MaxNationalIDLength {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' {
			return false
		}
	}
	return true
}

// IsValidIdentifier accepts what the login endpoint accepts: anything with
// an "@" must be an email, everything else a national id.
func IsValidIdentifier(s string) bool {
	if strings.Contains(s, "@") {
		return IsValidEmail(s)
	}
	return IsValidNationalID(s)
}

// IsValidHTTPURL reports whether s is an absolute http or https URL.
func IsValidHTTPURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// FieldError is one failed check.
type FieldError struct {
	Field   string // json name
	Message string // human readable, uses the label
}

// Result collects the failed checks of one Validate call.
type Result struct {
	Errors []FieldError
}

// HasErrors reports whether any check failed.
func (r *Result) HasErrors() bool { return r != nil && len(r.Errors) > 0 }

// First returns the first message, or "".
func (r *Result) First() string {
	if !r.HasErrors() {
		return ""
	}
	return r.Errors[0].Message
}

// All joins every message.
func (r *Result) All() string {
	if !r.HasErrors() {
		return ""
	}
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}

// Err converts the result into a ValidationError, or nil.
func (r *Result) Err() error {
	if !r.HasErrors() {
		return nil
	}
	fields := make(map[string]string, len(r.Errors))
	for _, e := range r.Errors {
		if _, seen := fields[e.Field]; !seen {
			fields[e.Field] = e.Message
		}
	}
	return &apperr.ValidationError{Message: r.First(), Fields: fields}
}

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
		_ = validate.RegisterValidation("identifier", func(fl validator.FieldLevel) bool {
			return IsValidIdentifier(fl.Field().String())
		})
		_ = validate.RegisterValidation("httpurl", func(fl validator.FieldLevel) bool {
			return IsValidHTTPURL(fl.Field().String())
		})
	})
	return validate
}

// Validate runs the validate tags of a struct.
func Validate(input any) *Result {
	res := &Result{}
	err := instance().Struct(input)
	if err == nil {
		return res
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		res.Errors = append(res.Errors, FieldError{Message: err.Error()})
		return res
	}
	t := reflect.TypeOf(input)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	for _, fe := range verrs {
		res.Errors = append(res.Errors, FieldError{
			Field:   fe.Field(),
			Message: message(fe, label(t, fe)),
		})
	}
	return res
}

func label(t reflect.Type, fe validator.FieldError) string {
	if f, ok := t.FieldByName(fe.StructField()); ok {
		if l := f.Tag.Get("label"); l != "" {
			return l
		}
	}
	return fe.Field()
}

func message(fe validator.FieldError, label string) string {
	switch fe.Tag() {
	case "required":
		return label + " is required."
	case "max":
		return label + " must be at most " + fe.Param() + " characters."
	case "min":
		return label + " must be at least " + fe.Param() + " characters."
	case "email":
		return "A valid email address is required."
	case "identifier":
		return label + " must be an email address or national ID."
	case "httpurl":
		return label + " must be a valid http(s) URL."
	case "oneof":
		return label + " must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ") + "."
	}
	return label + " is invalid."
}
