// Package formutil reads small request bodies into flat string maps.
//
// Handlers accept the same fields either as JSON objects or as
// url-encoded / multipart forms, so a page form and an API caller reach
// the same code path. Nested JSON values are rejected.
package formutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/dalemusser/campuscard/internal/app/system/apperr"
)

// ErrBodyTooLarge is returned when the body exceeds the caller's limit.
var ErrBodyTooLarge = errors.New("request body too large")

// Values reads r's body (at most maxBytes) as a map of trimmed strings.
// Malformed bodies yield a ValidationError; an oversized body yields a
// ValidationError wrapping ErrBodyTooLarge.
func Values(w http.ResponseWriter, r *http.Request, maxBytes int64) (map[string]string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch ct {
	case "application/json":
		return jsonValues(r)
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			return nil, bodyError(err)
		}
	default:
		if err := r.ParseForm(); err != nil {
			return nil, bodyError(err)
		}
	}

	out := make(map[string]string, len(r.Form))
	for k, vs := range r.Form {
		if len(vs) > 0 {
			out[k] = strings.TrimSpace(vs[0])
		}
	}
	return out, nil
}

func jsonValues(r *http.Request) (map[string]string, error) {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, bodyError(err)
	}

	out := make(map[string]string, len(raw))
	for k, v := range raw {
		switch tv := v.(type) {
		case nil:
		case string:
			out[k] = strings.TrimSpace(tv)
		case json.Number, bool:
			out[k] = fmt.Sprint(tv)
		default:
			return nil, &apperr.ValidationError{
				Message: "malformed request body",
				Fields:  map[string]string{k: "must be a string, number or boolean"},
			}
		}
	}
	return out, nil
}

// bodyErr keeps the cause reachable through errors.Is.
type bodyErr struct {
	*apperr.ValidationError
	cause error
}

func (e *bodyErr) Unwrap() []error { return []error{e.ValidationError, e.cause} }

func bodyError(err error) error {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return &bodyErr{
			ValidationError: &apperr.ValidationError{Message: "request body too large"},
			cause:           ErrBodyTooLarge,
		}
	}
	return &apperr.ValidationError{Message: "malformed request body"}
}

// First returns the first non-empty value among keys.
func First(vals map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := vals[k]; v != "" {
			return v
		}
	}
	return ""
}
