// Package rest holds the small JSON-over-HTTP helper shared by the clients of
// the Murmurations Index, Library and Data Proxy services.
package rest

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
)

// maxBodyBytes caps how much of a response body is buffered.
const maxBodyBytes = 8 << 20

// ErrUnavailable wraps transport failures (DNS, refused connections,
// timeouts) so callers can tell them apart from HTTP error statuses.
var ErrUnavailable = errors.New("rest: service unavailable")

// Response is a buffered HTTP response.
type Response struct {
	StatusCode int
	Status     string
	Body       []byte
}

// OK reports whether the status is 2xx.
func (r Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Client issues JSON requests against one base URL.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
}

// New constructs a Client. A nil http client falls back to a dedicated client
// using timeout.
func New(baseURL string, client *http.Client, timeout time.Duration) *Client {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    client,
		timeout: timeout,
	}
}

// BaseURL returns the normalised base URL.
func (c *Client) BaseURL() string {
	if c == nil {
		return ""
	}
	return c.baseURL
}

// Do sends a request to path (joined onto the base URL) and buffers the
// response. payload, when non-nil, is JSON encoded. Non-2xx statuses are not
// errors; transport failures wrap ErrUnavailable.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, payload any) (Response, error) {
	if c == nil || c.http == nil {
		return Response{}, errors.New("rest: client is not configured")
	}
	if c.baseURL == "" {
		return Response{}, errors.New("rest: base url is required")
	}

	reqCtx := ctx
	var cancel context.CancelFunc
	if c.timeout > 0 {
		reqCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	target := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return Response{}, fmt.Errorf("rest: encode payload: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(reqCtx, method, target, body)
	if err != nil {
		return Response{}, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %s %s: %v", ErrUnavailable, method, path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Response{}, fmt.Errorf("%w: read %s %s: %v", ErrUnavailable, method, path, err)
	}
	return Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       data,
	}, nil
}

// PathEscape escapes a single path segment.
func PathEscape(segment string) string {
	return url.PathEscape(segment)
}
