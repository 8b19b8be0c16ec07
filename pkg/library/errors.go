package library

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrNoLoader is returned by fetchers built without a loader.
	ErrNoLoader = errors.New("library: loader is not configured")
	// ErrInvalidName rejects empty names and names that could escape the
	// schemas path.
	ErrInvalidName = errors.New("library: invalid schema name")
	// ErrNotFound reports a schema the Library (or the offline bundle) does
	// not know.
	ErrNotFound = errors.New("library: schema not found")
)

// StatusError reports a non-2xx answer from the Library.
type StatusError struct {
	Code   int
	Status string
	Body   []byte
}

func (e *StatusError) Error() string {
	status := e.Status
	if status == "" {
		status = fmt.Sprintf("%d %s", e.Code, http.StatusText(e.Code))
	}
	return "library: unexpected status " + status
}

// Is lets errors.Is(err, ErrNotFound) match 404 answers.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.Code == http.StatusNotFound
}

// ValidateName checks a schema name before it is used as a path segment.
func ValidateName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || trimmed != name {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if strings.ContainsAny(name, `/\?#`) || strings.Contains(name, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
