package httpapi

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/murmurations/go-murmurations/internal/auth"
)

const (
	apiTitle      = "Murmurations Tools"
	apiVersion    = "1.0.0"
	sessionScheme = "session"
)

var pathParamPattern = regexp.MustCompile(`\{([a-zA-Z_]+)\}`)

// Document describes the route table as an OpenAPI 3 document.
func (s *Server) Document() *openapi3.T {
	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       apiTitle,
			Version:     apiVersion,
			Description: "Profile generator, index updater and index explorer for the Murmurations network.",
		},
		Paths: openapi3.NewPaths(),
		Components: &openapi3.Components{
			SecuritySchemes: openapi3.SecuritySchemes{
				sessionScheme: &openapi3.SecuritySchemeRef{Value: &openapi3.SecurityScheme{
					Type: "apiKey",
					In:   "cookie",
					Name: auth.SessionCookie,
				}},
			},
		},
	}

	for _, rt := range s.routes {
		op := openapi3.NewOperation()
		op.Summary = rt.summary
		op.OperationID = operationID(rt.method, rt.pattern)
		for _, match := range pathParamPattern.FindAllStringSubmatch(rt.pattern, -1) {
			op.AddParameter(openapi3.NewPathParameter(match[1]).WithSchema(openapi3.NewStringSchema()))
		}
		op.AddResponse(http.StatusOK, openapi3.NewResponse().WithDescription("Success"))
		op.AddResponse(0, openapi3.NewResponse().WithDescription("Error envelope"))
		if rt.auth {
			op.AddResponse(http.StatusUnauthorized, openapi3.NewResponse().WithDescription("Authentication required"))
			op.Security = &openapi3.SecurityRequirements{{sessionScheme: []string{}}}
		}
		doc.AddOperation(rt.pattern, rt.method, op)
	}
	return doc
}

func (s *Server) handleOpenAPI(w http.ResponseWriter, _ *http.Request) {
	s.docOnce.Do(func() {
		s.doc = s.Document()
	})
	s.writeJSON(w, http.StatusOK, s.doc)
}

func operationID(method, pattern string) string {
	parts := []string{strings.ToLower(method)}
	for _, segment := range strings.Split(strings.Trim(pattern, "/"), "/") {
		segment = strings.Trim(segment, "{}")
		segment = strings.NewReplacer("-", "_", ".", "_").Replace(segment)
		if segment != "" {
			parts = append(parts, segment)
		}
	}
	return strings.Join(parts, "_")
}
