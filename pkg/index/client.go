// Package index is a client for the Murmurations Index REST API: profile
// validation, node registration and node search.
package index

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/murmurations/go-murmurations/internal/rest"
	"github.com/murmurations/go-murmurations/pkg/validation"
)

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient injects a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout caps every request.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithLogger routes request failures to the supplied logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Client talks to one Index deployment.
type Client struct {
	rest       *rest.Client
	httpClient *http.Client
	timeout    time.Duration
	logger     *zap.Logger
}

// New constructs a Client for the Index at baseURL.
func New(baseURL string, options ...Option) *Client {
	c := &Client{logger: zap.NewNop()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}
	c.rest = rest.New(baseURL, c.httpClient, c.timeout)
	return c
}

// Reply is an Index answer passed through verbatim.
type Reply struct {
	StatusCode int
	Body       json.RawMessage
}

// NodeID returns the Index node id for a profile URL: the hex SHA-256 of the
// URL.
func NodeID(profileURL string) string {
	sum := sha256.Sum256([]byte(profileURL))
	return hex.EncodeToString(sum[:])
}

// Validate submits a profile to the Index validator. A 400 answer becomes a
// *ValidationError carrying the reported issues.
func (c *Client) Validate(ctx context.Context, profile any) error {
	resp, err := c.do(ctx, http.MethodPost, "v2/validate", nil, profile)
	if err != nil {
		return err
	}
	if resp.OK() {
		return nil
	}
	if resp.StatusCode == http.StatusBadRequest {
		return &ValidationError{Issues: parseIssues(resp.Body)}
	}
	return newStatusError(resp)
}

// CreateNode registers a profile URL and returns the assigned node id.
func (c *Client) CreateNode(ctx context.Context, profileURL string) (string, error) {
	if strings.TrimSpace(profileURL) == "" {
		return "", ErrMissingProfileURL
	}
	resp, err := c.do(ctx, http.MethodPost, "v2/nodes", nil, map[string]string{"profile_url": profileURL})
	if err != nil {
		return "", err
	}
	if !resp.OK() {
		return "", newStatusError(resp)
	}
	nodeID := gjson.GetBytes(resp.Body, "data.node_id")
	if !nodeID.Exists() || nodeID.String() == "" {
		return "", errors.New("index: response has no data.node_id")
	}
	return nodeID.String(), nil
}

// NodeStatus returns the processing status of a node ("received",
// "posted", "validated", "deleted", ...).
func (c *Client) NodeStatus(ctx context.Context, nodeID string) (string, error) {
	if strings.TrimSpace(nodeID) == "" {
		return "", ErrMissingNodeID
	}
	resp, err := c.do(ctx, http.MethodGet, "v2/nodes/"+rest.PathEscape(nodeID), nil, nil)
	if err != nil {
		return "", err
	}
	if !resp.OK() {
		return "", newStatusError(resp)
	}
	return gjson.GetBytes(resp.Body, "data.status").String(), nil
}

// DeleteNode asks the Index to drop a node.
func (c *Client) DeleteNode(ctx context.Context, nodeID string) error {
	if strings.TrimSpace(nodeID) == "" {
		return ErrMissingNodeID
	}
	resp, err := c.do(ctx, http.MethodDelete, "v2/nodes/"+rest.PathEscape(nodeID), nil, nil)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return newStatusError(resp)
	}
	return nil
}

// SyncNode posts a profile URL for synchronous processing and returns the
// Index's answer as is.
func (c *Client) SyncNode(ctx context.Context, profileURL string) (Reply, error) {
	if strings.TrimSpace(profileURL) == "" {
		return Reply{}, ErrMissingProfileURL
	}
	resp, err := c.do(ctx, http.MethodPost, "v2/nodes-sync", nil, map[string]string{"profile_url": profileURL})
	if err != nil {
		return Reply{}, err
	}
	return Reply{StatusCode: resp.StatusCode, Body: resp.Body}, nil
}

// NodeByURL looks a node up by its profile URL and returns the Index's
// answer as is.
func (c *Client) NodeByURL(ctx context.Context, profileURL string) (Reply, error) {
	if strings.TrimSpace(profileURL) == "" {
		return Reply{}, ErrMissingProfileURL
	}
	resp, err := c.do(ctx, http.MethodGet, "v2/nodes/"+NodeID(profileURL), nil, nil)
	if err != nil {
		return Reply{}, err
	}
	return Reply{StatusCode: resp.StatusCode, Body: resp.Body}, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload any) (rest.Response, error) {
	resp, err := c.rest.Do(ctx, method, path, query, payload)
	if err != nil {
		c.logger.Warn("index request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
		return rest.Response{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return resp, nil
}

func parseIssues(body []byte) []validation.Issue {
	var issues []validation.Issue
	gjson.GetBytes(body, "errors").ForEach(func(_, item gjson.Result) bool {
		issues = append(issues, validation.NewIssue(
			int(item.Get("status").Int()),
			item.Get("source.pointer").String(),
			item.Get("title").String(),
			item.Get("detail").String(),
		))
		return true
	})
	return issues
}

// errorMessage extracts the human readable message from an Index error body.
func errorMessage(body []byte) string {
	for _, path := range []string{"error", "errors.0.detail", "errors.0.title", "message"} {
		if value := gjson.GetBytes(body, path); value.Type == gjson.String && value.String() != "" {
			return value.String()
		}
	}
	return ""
}
