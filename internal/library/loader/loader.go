// Package loader resolves Library schema names from an fs.FS bundle or the
// Library's HTTP API.
package loader

import (
	"context"
	"errors"
	"io/fs"
	"net/http"

	"github.com/murmurations/go-murmurations/internal/rest"
	"github.com/murmurations/go-murmurations/pkg/library"
	"github.com/murmurations/go-murmurations/pkg/schema"
)

// Loader implements library.Loader by consulting an fs.FS first and the
// Library's HTTP API second.
type Loader struct {
	fs   fs.FS
	rest *rest.Client
}

// Ensure the implementation satisfies the public interface.
var _ library.Loader = (*Loader)(nil)

// New constructs a Loader from pre-resolved options.
func New(options library.LoaderOptions) *Loader {
	timeout := options.RequestTimeout

	var client *rest.Client
	if options.BaseURL != "" {
		var httpClient *http.Client
		if options.HTTPClient != nil {
			clone := *options.HTTPClient
			if timeout > 0 && clone.Timeout == 0 {
				clone.Timeout = timeout
			}
			httpClient = &clone
		}
		client = rest.New(options.BaseURL, httpClient, timeout)
	}

	return &Loader{
		fs:   options.FileSystem,
		rest: client,
	}
}

// Load resolves name to its schema document.
func (l *Loader) Load(ctx context.Context, name string) (schema.Document, error) {
	if err := library.ValidateName(name); err != nil {
		return schema.Document{}, err
	}
	if l.fs == nil && l.rest == nil {
		return schema.Document{}, errors.New("library loader: no filesystem or base url configured")
	}

	if l.fs != nil {
		data, err := loadFromFS(ctx, l.fs, name)
		switch {
		case err == nil:
			return schema.NewDocument(name, data)
		case errors.Is(err, fs.ErrNotExist) && l.rest != nil:
			// not bundled, try the network
		case errors.Is(err, fs.ErrNotExist):
			return schema.Document{}, library.ErrNotFound
		default:
			return schema.Document{}, err
		}
	}

	data, err := loadHTTP(ctx, l.rest, name)
	if err != nil {
		return schema.Document{}, err
	}
	return schema.NewDocument(name, data)
}
