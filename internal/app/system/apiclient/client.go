// Package apiclient is the typed client for the CampusCard REST API.
//
// The bearer token is passed explicitly on every authenticated call; the
// client holds no session state. Non-2xx responses are mapped onto the
// apperr taxonomy. Callers decide what a 401 means: on an authenticated
// call it ends the session, on login it means bad credentials.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dalemusser/campuscard/internal/app/system/apperr"
	"github.com/dalemusser/campuscard/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 4 << 20

// Client calls the CampusCard API.
type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New returns a Client for the API rooted at baseURL.
func New(baseURL string, logger *zap.Logger, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("api base url %q must be an absolute http(s) url", baseURL)
	}
	c := &Client{
		baseURL: strings.TrimRight(u.String(), "/"),
		http:    &http.Client{},
		log:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// call describes one API request.
type call struct {
	op          string
	method      string
	path        string
	token       string
	body        io.Reader
	contentType string
	timeout     time.Duration
	out         any
}

// jsonBody encodes v for a call body.
func jsonBody(v any) (io.Reader, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(b), nil
}

func (c *Client) do(ctx context.Context, cl call) error {
	ctx, cancel := timeouts.WithTimeout(ctx, cl.timeout, c.log, "api "+cl.op)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+cl.path, cl.body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", cl.op, err)
	}
	req.Header.Set("Accept", "application/json")
	if cl.body != nil {
		ct := cl.contentType
		if ct == "" {
			ct = "application/json"
		}
		req.Header.Set("Content-Type", ct)
	}
	if cl.token != "" {
		req.Header.Set("Authorization", "Bearer "+cl.token)
	}
	reqID := middleware.GetReqID(ctx)
	if reqID == "" {
		reqID = uuid.NewString()
	}
	req.Header.Set("X-Request-ID", reqID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("api call failed",
			zap.String("op", cl.op),
			zap.String("request_id", reqID),
			zap.Error(err))
		return &apperr.NetworkError{Op: cl.op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &apperr.NetworkError{Op: cl.op, Err: err}
	}

	c.log.Debug("api call",
		zap.String("op", cl.op),
		zap.String("method", cl.method),
		zap.String("path", cl.path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
		zap.String("request_id", reqID))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s: %w", cl.op, statusError(resp.StatusCode, raw))
	}
	if cl.out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, cl.out); err != nil {
		return fmt.Errorf("%s: decode response: %w", cl.op, err)
	}
	return nil
}

// statusError maps a non-2xx response onto the error taxonomy.
func statusError(code int, raw []byte) error {
	body := map[string]any{}
	if err := json.Unmarshal(raw, &body); err != nil {
		body = map[string]any{}
	}
	msg := messageOf(body)
	if msg == "" && len(body) == 0 {
		msg = strings.TrimSpace(string(raw))
	}

	switch code {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		ve := &apperr.ValidationError{Message: msg, Fields: fieldsOf(body)}
		if len(ve.Fields) == 0 {
			if f, ok := apperr.ParseFieldMessage(msg); ok {
				ve.Fields = f
			}
		}
		return ve
	case http.StatusUnauthorized:
		return &apperr.UnauthorizedError{Message: msg}
	case http.StatusForbidden:
		return &apperr.ForbiddenError{Message: msg, Body: body}
	case http.StatusNotFound:
		return &apperr.NotFoundError{Message: msg}
	}
	return &apperr.ServerError{StatusCode: code, Message: msg}
}

func messageOf(body map[string]any) string {
	for _, k := range []string{"message", "error"} {
		if s, ok := body[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func fieldsOf(body map[string]any) map[string]string {
	for _, k := range []string{"fields", "errors"} {
		m, ok := body[k].(map[string]any)
		if !ok {
			continue
		}
		out := make(map[string]string, len(m))
		for field, v := range m {
			out[field] = fmt.Sprint(v)
		}
		return out
	}
	return nil
}

// IsUnauthorized reports whether err is a 401 on an authenticated call.
func IsUnauthorized(err error) bool {
	return errors.Is(err, apperr.ErrUnauthorized)
}

func escape(id fmt.Stringer) string {
	return url.PathEscape(id.String())
}
