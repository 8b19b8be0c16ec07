package index

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
)

// searchParams are the query parameters forwarded to the node search.
var searchParams = []string{
	"schema", "name", "tags", "primary_url", "last_updated", "lat", "lon",
	"range", "locality", "region", "country", "status", "page_size", "page",
}

// SearchResult is one page of node search results.
type SearchResult struct {
	Data  json.RawMessage `json:"data"`
	Links json.RawMessage `json:"links,omitempty"`
	Meta  json.RawMessage `json:"meta,omitempty"`
}

// SearchQuery keeps the supported search parameters from params. "schema=all"
// means no schema filter; tags_filter defaults to "or" and tags_exact to
// "false".
func SearchQuery(params url.Values) url.Values {
	query := url.Values{}
	for _, key := range searchParams {
		value := strings.TrimSpace(params.Get(key))
		if value == "" || (key == "schema" && value == "all") {
			continue
		}
		query.Set(key, value)
	}
	query.Set("tags_filter", valueOr(params.Get("tags_filter"), "or"))
	query.Set("tags_exact", valueOr(params.Get("tags_exact"), "false"))
	return query
}

// SearchNodes queries the Index's node listing.
func (c *Client) SearchNodes(ctx context.Context, params url.Values) (SearchResult, error) {
	resp, err := c.do(ctx, http.MethodGet, "v2/nodes", SearchQuery(params), nil)
	if err != nil {
		return SearchResult{}, err
	}
	if !resp.OK() {
		return SearchResult{}, newStatusError(resp)
	}
	return SearchResult{
		Data:  raw(resp.Body, "data"),
		Links: raw(resp.Body, "links"),
		Meta:  raw(resp.Body, "meta"),
	}, nil
}

func raw(body []byte, path string) json.RawMessage {
	value := gjson.GetBytes(body, path)
	if !value.Exists() {
		return nil
	}
	return json.RawMessage(value.Raw)
}

func valueOr(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}
