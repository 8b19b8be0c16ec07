package library

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/murmurations/go-murmurations/internal/rest"
)

// hiddenPrefixes are schema families the catalog never offers to users.
var hiddenPrefixes = []string{"default-v", "test_schema-v"}

// Catalog reads the Library's listing endpoints.
type Catalog struct {
	client *rest.Client
}

// NewCatalog constructs a Catalog from loader options. Only BaseURL,
// HTTPClient and RequestTimeout are used.
func NewCatalog(options ...LoaderOption) *Catalog {
	cfg := NewLoaderOptions(options...)
	return &Catalog{client: rest.New(cfg.BaseURL, cfg.HTTPClient, cfg.RequestTimeout)}
}

// ListSchemas returns the published schema names in Library order, without
// the default and test schemas.
func (c *Catalog) ListSchemas(ctx context.Context) ([]string, error) {
	body, err := c.get(ctx, "v2/schemas")
	if err != nil {
		return nil, err
	}
	data := gjson.GetBytes(body, "data")
	if !data.IsArray() {
		return nil, errors.New("library: schema list has no data array")
	}
	names := make([]string, 0, len(data.Array()))
	data.ForEach(func(_, item gjson.Result) bool {
		name := item.Get("name").String()
		if name == "" || hidden(name) {
			return true
		}
		names = append(names, name)
		return true
	})
	return names, nil
}

// Countries returns the sorted country keys known to the Library.
func (c *Catalog) Countries(ctx context.Context) ([]string, error) {
	body, err := c.get(ctx, "v2/countries")
	if err != nil {
		return nil, err
	}
	parsed := gjson.ParseBytes(body)
	if !parsed.IsObject() {
		return nil, errors.New("library: countries payload is not an object")
	}
	keys := make([]string, 0)
	parsed.ForEach(func(key, _ gjson.Result) bool {
		keys = append(keys, key.String())
		return true
	})
	sort.Strings(keys)
	return keys, nil
}

// Schema returns the raw document for one schema name, unmodified.
func (c *Catalog) Schema(ctx context.Context, name string) ([]byte, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	return c.get(ctx, "v2/schemas/"+rest.PathEscape(name))
}

func (c *Catalog) get(ctx context.Context, path string) ([]byte, error) {
	if c == nil || c.client == nil {
		return nil, errors.New("library: catalog is not configured")
	}
	resp, err := c.client.Do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("library: %w", err)
	}
	if !resp.OK() {
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status, Body: resp.Body}
	}
	return resp.Body, nil
}

func hidden(name string) bool {
	for _, prefix := range hiddenPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}
