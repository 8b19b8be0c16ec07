// Package dataproxy reads batch import records from the Murmurations Data
// Proxy.
package dataproxy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/murmurations/go-murmurations/internal/rest"
)

var (
	// ErrUnavailable reports that the Data Proxy could not be reached.
	ErrUnavailable = errors.New("dataproxy: service unavailable")
	// ErrMissingUser rejects lookups without a user id.
	ErrMissingUser = errors.New("dataproxy: missing user id")
)

// StatusError reports a non-2xx Data Proxy answer.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("dataproxy: unexpected status %d %s", e.Code, http.StatusText(e.Code))
}

// Client talks to one Data Proxy deployment.
type Client struct {
	rest *rest.Client
}

// New constructs a Client. A nil httpClient falls back to a client with the
// given timeout.
func New(baseURL string, httpClient *http.Client, timeout time.Duration) *Client {
	return &Client{rest: rest.New(baseURL, httpClient, timeout)}
}

// Batches returns the batch imports owned by a user, as the Data Proxy's
// "data" member.
func (c *Client) Batches(ctx context.Context, userID string) (json.RawMessage, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrMissingUser
	}
	resp, err := c.rest.Do(ctx, http.MethodGet, "v1/batch/user", url.Values{"user_id": {userID}}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !resp.OK() {
		return nil, &StatusError{Code: resp.StatusCode}
	}
	data := gjson.GetBytes(resp.Body, "data")
	if !data.Exists() {
		return json.RawMessage("null"), nil
	}
	return json.RawMessage(data.Raw), nil
}
