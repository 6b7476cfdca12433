// Package api is the HTTP client for the expense REST backend.
//
// Every call goes through Client.Call. A failed call is logged, reported to
// the user exactly once through the configured notifier, and returned to the
// caller as an *Error so it can abort whatever it was doing.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"expenseweb/internal/log"
	"expenseweb/internal/notify"
)

// DefaultErrorMessage is used when a failed response carries no error field.
const DefaultErrorMessage = "API call failed"

// maxResponseBytes bounds how much of a backend response is read.
const maxResponseBytes = 1 << 20

// Error is a failed backend call. Status is 0 for transport failures.
type Error struct {
	Method   string
	Endpoint string
	Status   int
	Message  string
}

func (e *Error) Error() string {
	return e.Message
}

// IsStatus reports whether err is an *Error with the given HTTP status.
func IsStatus(err error, status int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// Notifier receives the user-facing message of each failed call.
type Notifier func(ctx context.Context, message string)

// ContextNotifier reports into the notify.Collector carried by ctx.
func ContextNotifier(ctx context.Context, message string) {
	notify.FromContext(ctx).Error(message)
}

// Stats counts backend traffic for the metrics endpoint.
type Stats struct {
	Calls    int64
	Failures int64
}

type Client struct {
	baseURL  string
	http     *http.Client
	logger   *log.Logger
	notifier Notifier

	calls    int64
	failures int64
}

type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l.WithComponent(log.ComponentAPI) }
}

func WithNotifier(n Notifier) Option {
	return func(c *Client) { c.notifier = n }
}

// New creates a client rooted at baseURL, e.g. "http://localhost:8080/api".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: 10 * time.Second},
		logger:   log.New(log.DefaultConfig()).WithComponent(log.ComponentAPI),
		notifier: ContextNotifier,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// Stats returns call counters since start.
func (c *Client) Stats() Stats {
	return Stats{
		Calls:    atomic.LoadInt64(&c.calls),
		Failures: atomic.LoadInt64(&c.failures),
	}
}

// Call sends a JSON request to endpoint (relative to the base URL) and
// decodes a JSON response into out when out is non-nil.
func (c *Client) Call(ctx context.Context, method, endpoint string, body, out any) error {
	return c.do(ctx, method, endpoint, body, out, true)
}

// Ping checks that the backend answers. Failures are returned but never
// shown to the user.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/categories", nil, nil, false)
}

func (c *Client) do(ctx context.Context, method, endpoint string, body, out any, report bool) error {
	atomic.AddInt64(&c.calls, 1)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return c.fail(ctx, method, endpoint, 0, fmt.Sprintf("encode request: %v", err), report)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return c.fail(ctx, method, endpoint, 0, err.Error(), report)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return c.fail(ctx, method, endpoint, 0, err.Error(), report)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return c.fail(ctx, method, endpoint, resp.StatusCode, fmt.Sprintf("read response: %v", err), report)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.fail(ctx, method, endpoint, resp.StatusCode, errorMessage(data), report)
	}

	if out != nil && len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return c.fail(ctx, method, endpoint, resp.StatusCode, fmt.Sprintf("decode response: %v", err), report)
		}
	}
	return nil
}

// errorMessage extracts the "error" field of a failure body.
func errorMessage(data []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || payload.Error == "" {
		return DefaultErrorMessage
	}
	return payload.Error
}

func (c *Client) fail(ctx context.Context, method, endpoint string, status int, message string, report bool) error {
	atomic.AddInt64(&c.failures, 1)
	c.logger.ErrorContext(ctx, "API Error",
		log.FieldMethod, method,
		log.FieldEndpoint, endpoint,
		log.FieldStatusCode, status,
		log.FieldError, message)
	if report && c.notifier != nil {
		c.notifier(ctx, "Error: "+message)
	}
	return &Error{Method: method, Endpoint: endpoint, Status: status, Message: message}
}
