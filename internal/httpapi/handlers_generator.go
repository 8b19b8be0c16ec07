package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/murmurations/go-murmurations/internal/render"
	"github.com/murmurations/go-murmurations/pkg/index"
	"github.com/murmurations/go-murmurations/pkg/library"
	"github.com/murmurations/go-murmurations/pkg/profile"
	"github.com/murmurations/go-murmurations/pkg/schema"
	"github.com/murmurations/go-murmurations/pkg/validation"
)

const linkedSchemasField = "linked_schemas"

type buildResponse struct {
	Success bool                 `json:"success"`
	Profile profile.Object       `json:"profile"`
	Issues  []profile.FieldIssue `json:"issues"`
}

type validateResponse struct {
	Success bool               `json:"success"`
	Status  int                `json:"status,omitempty"`
	Errors  []validation.Issue `json:"errors,omitempty"`
}

func (s *Server) handleGeneratorPage(w http.ResponseWriter, r *http.Request) {
	selected := schema.ParseNames(strings.Join(r.URL.Query()["schemas"], ","))
	view := render.ProfileGenerator{
		Title:         "Profile Generator",
		Authenticated: UserFromContext(r.Context()) != nil,
		Selected:      selected,
		LinkedSchemas: strings.Join(selected, ","),
	}

	names, err := s.catalog.ListSchemas(r.Context())
	if err != nil {
		s.logger.Warn("list schemas failed", zap.Error(err))
		view.Error = msgLibraryDown
	}
	view.Schemas = render.SchemaOptions(names, selected)

	if len(selected) > 0 {
		merged := s.merger.Merge(r.Context(), selected)
		if merged == nil {
			view.Error = "None of the selected schemas could be loaded from the Library"
		} else {
			view.Fields = render.Fields(profile.FormFields(merged))
		}
	}
	s.renderPage(w, render.ProfileGeneratorPage, view)
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	raw, err := s.catalog.Schema(r.Context(), r.PathValue("name"))
	var statusErr *library.StatusError
	switch {
	case errors.Is(err, library.ErrInvalidName):
		s.writeError(w, http.StatusBadRequest, "Invalid schema name")
	case errors.As(err, &statusErr):
		s.writeJSON(w, statusErr.Code, map[string]string{"status": "unknown"})
	case err != nil:
		s.logger.Warn("schema proxy failed", zap.Error(err))
		s.writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "unknown"})
	default:
		s.writeRaw(w, http.StatusOK, raw)
	}
}

// handleBuild merges the submitted linked_schemas (or ?schemas=) and builds
// the profile from the rest of the form.
func (s *Server) handleBuild(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid form submission")
		return
	}
	data := profile.FromValues(r.PostForm)

	names := schema.ParseNames(strings.Join(data[linkedSchemasField], ","))
	if len(names) == 0 {
		names = schema.ParseNames(strings.Join(r.URL.Query()["schemas"], ","))
		if len(names) > 0 {
			data.Set(linkedSchemasField, strings.Join(names, ","))
		}
	}
	if len(names) == 0 {
		s.writeError(w, http.StatusBadRequest, "Missing linked_schemas")
		return
	}

	merged := s.merger.Merge(r.Context(), names)
	if merged == nil {
		s.writeError(w, http.StatusBadGateway, "None of the selected schemas could be loaded from the Library")
		return
	}
	result := s.builder.Build(merged, data)
	issues := result.Issues
	if issues == nil {
		issues = []profile.FieldIssue{}
	}
	s.writeJSON(w, http.StatusOK, buildResponse{Success: true, Profile: result.Profile, Issues: issues})
}

// handleValidate forwards the profile to the Index, or checks it against its
// linked schemas in-process when ?local=1.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	raw, err := readBody(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Missing profile")
		return
	}
	doc, err := profile.Decode(raw)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Profile must be a JSON object")
		return
	}

	if r.URL.Query().Get("local") == "1" {
		s.validateLocally(w, r, doc)
		return
	}

	err = s.index.Validate(r.Context(), doc)
	var (
		verr      *index.ValidationError
		statusErr *index.StatusError
	)
	switch {
	case err == nil:
		s.writeJSON(w, http.StatusOK, validateResponse{Success: true, Status: http.StatusOK})
	case errors.As(err, &verr):
		s.writeJSON(w, http.StatusBadRequest, validateResponse{Success: false, Errors: verr.Issues})
	case errors.As(err, &statusErr):
		s.writeJSON(w, statusErr.Code, map[string]any{"success": false, "errors": statusErr.Message})
	default:
		s.logger.Error("validate profile failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func (s *Server) validateLocally(w http.ResponseWriter, r *http.Request, doc profile.Object) {
	names := doc.LinkedSchemas()
	if len(names) == 0 {
		s.writeError(w, http.StatusBadRequest, "Missing linked_schemas")
		return
	}
	merged := s.merger.Merge(r.Context(), names)
	if merged == nil {
		s.writeError(w, http.StatusBadGateway, "None of the linked schemas could be loaded from the Library")
		return
	}
	issues, err := validation.Local(merged, doc)
	if err != nil {
		s.logger.Error("local validation failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if len(issues) > 0 {
		s.writeJSON(w, http.StatusBadRequest, validateResponse{Success: false, Errors: issues})
		return
	}
	s.writeJSON(w, http.StatusOK, validateResponse{Success: true, Status: http.StatusOK})
}

func (s *Server) renderPage(w http.ResponseWriter, name string, view any) {
	var buf strings.Builder
	if err := s.pages.Render(&buf, name, view); err != nil {
		s.logger.Error("render page failed", zap.String("page", name), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(buf.String())); err != nil {
		s.logger.Warn("write page", zap.Error(err))
	}
}
