package index

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/murmurations/go-murmurations/internal/rest"
	"github.com/murmurations/go-murmurations/pkg/validation"
)

var (
	// ErrUnavailable reports that the Index could not be reached.
	ErrUnavailable = errors.New("index: service unavailable")
	// ErrMissingProfileURL rejects calls without a profile URL.
	ErrMissingProfileURL = errors.New("index: missing profile url")
	// ErrMissingNodeID rejects calls without a node id.
	ErrMissingNodeID = errors.New("index: missing node id")
)

// ValidationError lists the problems the Index found in a profile.
type ValidationError struct {
	Issues []validation.Issue
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "index: profile is invalid"
	}
	titles := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		if issue.Field != "" {
			titles = append(titles, issue.Field+": "+issue.Title)
			continue
		}
		titles = append(titles, issue.Title)
	}
	return "index: profile is invalid: " + strings.Join(titles, "; ")
}

// StatusError reports a non-2xx Index answer other than a validation failure.
type StatusError struct {
	Code    int
	Message string
	Body    []byte
}

func newStatusError(resp rest.Response) *StatusError {
	return &StatusError{
		Code:    resp.StatusCode,
		Message: errorMessage(resp.Body),
		Body:    resp.Body,
	}
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("index: %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("index: unexpected status %d %s", e.Code, http.StatusText(e.Code))
}
