// Package library exposes the contracts used to talk to the Murmurations
// Library: fetching individual schemas for the merger and reading the catalog
// of published schemas and countries.
package library

import (
	"context"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/murmurations/go-murmurations/pkg/schema"
)

// Loader fetches one schema document by name. Implementations live under
// internal/library but satisfy this contract.
type Loader interface {
	Load(ctx context.Context, name string) (schema.Document, error)
}

// LoaderOptions configures how a Loader resolves schema names. A FileSystem is
// consulted first so fixtures and offline bundles win over the network.
type LoaderOptions struct {
	// BaseURL is the Library root; schemas resolve to {BaseURL}/v2/schemas/{name}.
	// Empty disables HTTP loading.
	BaseURL string

	// FileSystem holds {name}.json entries.
	FileSystem fs.FS

	// HTTPClient allows callers to inject custom HTTP behaviour.
	HTTPClient *http.Client

	// RequestTimeout caps each remote fetch.
	RequestTimeout time.Duration
}

// LoaderOption mutates LoaderOptions prior to construction.
type LoaderOption func(*LoaderOptions)

// WithBaseURL points the loader at a Library deployment.
func WithBaseURL(base string) LoaderOption {
	return func(opts *LoaderOptions) {
		opts.BaseURL = strings.TrimRight(strings.TrimSpace(base), "/")
	}
}

// WithFileSystem injects an fs.FS holding {name}.json schema documents.
func WithFileSystem(files fs.FS) LoaderOption {
	return func(opts *LoaderOptions) {
		opts.FileSystem = files
	}
}

// WithHTTPClient injects a custom HTTP client for remote schemas.
func WithHTTPClient(client *http.Client) LoaderOption {
	return func(opts *LoaderOptions) {
		opts.HTTPClient = client
	}
}

// WithRequestTimeout caps remote fetch durations.
func WithRequestTimeout(timeout time.Duration) LoaderOption {
	return func(opts *LoaderOptions) {
		opts.RequestTimeout = timeout
	}
}

// NewLoaderOptions applies a set of LoaderOption values and returns the
// resulting configuration.
func NewLoaderOptions(options ...LoaderOption) LoaderOptions {
	cfg := LoaderOptions{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	return cfg
}

// NewFetcher adapts a Loader to the merger's Fetcher contract: every document
// is loaded and decoded into a schema.Retrieved.
func NewFetcher(loader Loader) schema.Fetcher {
	return schema.FetcherFunc(func(ctx context.Context, name string) (schema.Retrieved, error) {
		if loader == nil {
			return schema.Retrieved{}, ErrNoLoader
		}
		doc, err := loader.Load(ctx, name)
		if err != nil {
			return schema.Retrieved{}, err
		}
		return doc.Decode()
	})
}
