// Package client is the portal's stateless REST client for the remote
// report API. Every call is a single best-effort round trip: no retries, no
// caching, no shared state beyond the base URL and the token source.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrMalformedResponse marks a success status whose body was not valid
// JSON. Kept distinct from StatusError so pages can tell a backend failure
// from a broken payload.
var ErrMalformedResponse = errors.New("received a malformed response from the server")

// StatusError is a non-success response from the report API, carrying the
// message the backend sent (or a generic fallback) and the HTTP status.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return e.Message
}

// IsMalformedResponse reports whether err is a malformed-response failure.
func IsMalformedResponse(err error) bool {
	return errors.Is(err, ErrMalformedResponse)
}

// ErrorMessage extracts the user-facing message from a client error.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Message
	}
	return err.Error()
}

// TokenSource yields the token to attach as a bearer credential, or empty
// when the caller has no session.
//
// Deliberate carry-over: this is the identity token, not the access token.
// The backend authorizer validates the identity token because it carries
// the group claims the API gates on.
type TokenSource func() string

// Logger mirrors the portal logger's method set without importing it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Client calls the report API. Safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	logger     Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTokenSource sets the bearer token source.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) {
		if ts != nil {
			c.tokens = ts
		}
	}
}

// WithTimeout bounds each round trip.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(l Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Client for the given API stage root.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		tokens:     func() string { return "" },
		logger:     noopLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// request performs one round trip. payload (when non-nil) is sent as JSON;
// out (when non-nil) receives the decoded response body. An empty success
// body leaves out untouched.
func (c *Client) request(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request payload: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token := c.tokens(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.statusError(resp.StatusCode, raw)
	}

	// Parse by content, not content-type: the backend omits or mislabels
	// headers on some routes. An empty body is a valid empty result.
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return nil
	}
	if out == nil {
		if !json.Valid([]byte(text)) {
			return fmt.Errorf("%w: %s %s", ErrMalformedResponse, method, path)
		}
		return nil
	}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		c.logger.Error("response body was not valid JSON", "method", method, "path", path, "error", err)
		return fmt.Errorf("%w: %s %s", ErrMalformedResponse, method, path)
	}
	return nil
}

func (c *Client) statusError(status int, raw []byte) error {
	message := "An unknown error occurred"

	var parsed struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &parsed); err == nil {
		if parsed.Message != "" {
			message = parsed.Message
		} else {
			message = fmt.Sprintf("API error: %d", status)
		}
	}

	return &StatusError{Status: status, Message: message}
}
