// Package client is the HTTP client for the external rule-evaluation and
// storage service. Every method is one request/response exchange; the
// service owns persistence, aggregation and evaluation, this side owns
// request construction and response decoding.
//
// Error contract: network and non-2xx responses surface as *RequestError,
// with 404 and 409 additionally unwrapping to the matching sentinel errors
// so call sites can branch without inspecting status codes.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ruleforge/ruleforge/internal/types"
)

const defaultTimeout = 30 * time.Second

// maxErrorBody bounds how much of an error response is kept for messages.
const maxErrorBody = 512

// RequestError describes a failed exchange with the evaluator service.
type RequestError struct {
	Method string
	Path   string
	Status int    // 0 when the request never completed
	Body   string // truncated response body, "" on transport errors
	Err    error  // transport error, or a sentinel for mapped statuses
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
	}
	if e.Body != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, e.Body)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Status)
}

// Unwrap exposes the underlying transport or sentinel error.
func (e *RequestError) Unwrap() error { return e.Err }

// Client talks to one evaluator service instance.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client (tests, custom TLS).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a Client for the service at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("invalid service URL %q (expected http or https)", baseURL)
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// do performs one exchange. Body may be nil; contentType defaults to JSON
// when a body is present. Returns the raw response bytes on 2xx.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body []byte, contentType string) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, &RequestError{Method: method, Path: path, Err: err}
	}
	if body != nil {
		if contentType == "" {
			contentType = "application/json"
		}
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &RequestError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestError{Method: method, Path: path, Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		reqErr := &RequestError{
			Method: method,
			Path:   path,
			Status: resp.StatusCode,
			Body:   truncate(string(data), maxErrorBody),
			Err:    sentinelFor(resp.StatusCode),
		}
		c.logger.Warn("service request failed",
			"method", method, "path", path, "status", resp.StatusCode)
		return nil, reqErr
	}
	return data, nil
}

// doJSON performs an exchange and decodes the 2xx response into out.
// A nil out discards the body.
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body []byte, out any) error {
	data, err := c.do(ctx, method, path, query, body, "")
	if err != nil {
		return err
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &RequestError{Method: method, Path: path, Status: http.StatusOK,
			Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// sentinelFor maps well-known statuses to sentinel errors for errors.Is.
func sentinelFor(status int) error {
	switch status {
	case http.StatusNotFound:
		return types.ErrRuleNotFound
	case http.StatusConflict:
		return types.ErrRuleExists
	default:
		return errors.New(http.StatusText(status))
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
