// Package httputil provides shared HTTP plumbing for the WordPress and
// image clients: a thin request helper with default headers and optional
// Basic auth, retry with exponential backoff, and a file-backed cache for
// responses that are safe to reuse between runs.
package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Sentinel errors returned by request helpers.
var (
	// ErrNotFound is returned for HTTP 404 responses.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized is returned for HTTP 401 and 403 responses.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNetwork is returned for transport failures and non-2xx statuses.
	ErrNetwork = errors.New("network error")
)

// defaultTimeout bounds each individual HTTP request.
const defaultTimeout = 25 * time.Second

// BasicAuth holds credentials for HTTP Basic authentication.
type BasicAuth struct {
	Username string
	Password string
}

// Client wraps http.Client with default headers, optional Basic auth, and
// retry-aware status handling. The zero value is not usable; construct with
// NewClient.
type Client struct {
	http    *http.Client
	headers map[string]string
	auth    *BasicAuth
}

// NewClient creates a Client with the given default headers and optional
// Basic auth. Headers are applied to every request made through the client.
// Pass nil for headers or auth when not needed. A zero timeout uses the
// package default.
func NewClient(timeout time.Duration, headers map[string]string, auth *BasicAuth) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		headers: headers,
		auth:    auth,
	}
}

// GetJSON performs an HTTP GET and JSON-decodes the response body into v.
// The returned header allows callers to read pagination metadata.
func (c *Client) GetJSON(ctx context.Context, url string, v any) (http.Header, error) {
	body, header, err := c.Do(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return header, json.NewDecoder(body).Decode(v)
}

// GetBytes performs an HTTP GET and returns the raw response body.
// Extra headers are merged over the client defaults.
func (c *Client) GetBytes(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	body, _, err := c.Do(ctx, url, headers)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return io.ReadAll(body)
}

// Do performs an HTTP GET and returns the open response body and headers.
// The caller must close the body. Transport failures and 5xx statuses come
// back wrapped in RetryableError so [Retry] will attempt them again; 404
// maps to ErrNotFound and other statuses to ErrNetwork.
func (c *Client) Do(ctx context.Context, url string, headers map[string]string) (io.ReadCloser, http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, err
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if c.auth != nil {
		req.SetBasicAuth(c.auth.Username, c.auth.Password)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, Retryable(fmt.Errorf("%w: %v", ErrNetwork, err))
	}

	if err := checkStatus(resp.StatusCode); err != nil {
		resp.Body.Close()
		return nil, nil, err
	}
	return resp.Body, resp.Header, nil
}

func checkStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return fmt.Errorf("%w: status %d", ErrUnauthorized, code)
	case code >= 500:
		return Retryable(fmt.Errorf("%w: status %d", ErrNetwork, code))
	default:
		return fmt.Errorf("%w: status %d", ErrNetwork, code)
	}
}
