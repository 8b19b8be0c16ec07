package loader

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/murmurations/go-murmurations/internal/rest"
	"github.com/murmurations/go-murmurations/pkg/library"
)

func loadHTTP(ctx context.Context, client *rest.Client, name string) ([]byte, error) {
	if client == nil {
		return nil, errors.New("library loader: http client is not configured")
	}

	resp, err := client.Do(ctx, http.MethodGet, "v2/schemas/"+rest.PathEscape(name), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("library loader: %w", err)
	}
	if !resp.OK() {
		return nil, &library.StatusError{Code: resp.StatusCode, Status: resp.Status, Body: resp.Body}
	}
	if len(resp.Body) == 0 {
		return nil, fmt.Errorf("library loader: empty body for %q", name)
	}
	return resp.Body, nil
}
