package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/murmurations/go-murmurations/internal/render"
	"github.com/murmurations/go-murmurations/pkg/index"
	"github.com/murmurations/go-murmurations/pkg/store"
)

const msgIndexUnavailable = "The index service is currently not available. Please try again in a few minutes."

type searchResponse struct {
	index.SearchResult
	Status int `json:"status"`
}

type simpleError struct {
	Error string `json:"error"`
}

func (s *Server) handleNodeStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.index.NodeStatus(r.Context(), r.PathValue("id"))
	var statusErr *index.StatusError
	switch {
	case err == nil:
		s.writeJSON(w, http.StatusOK, map[string]string{"status": status})
	case errors.Is(err, index.ErrMissingNodeID):
		s.writeError(w, http.StatusBadRequest, "Missing node_id")
	case errors.As(err, &statusErr):
		s.writeRaw(w, statusErr.Code, statusErr.Body)
	default:
		s.writeError(w, http.StatusInternalServerError, msgIndexDown)
	}
}

// handlePublishProfile registers the hosted URL of one of the caller's
// profiles with the Index and records the node id.
func (s *Server) handlePublishProfile(w http.ResponseWriter, r *http.Request) {
	cuid := r.PathValue("id")
	user := UserFromContext(r.Context())
	if _, err := s.store.GetProfile(r.Context(), user.ID, cuid); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "Profile not found")
			return
		}
		s.storageFailure(w, "load profile", err)
		return
	}

	nodeID, err := s.index.CreateNode(r.Context(), s.cfg.ProfileURL(cuid))
	var statusErr *index.StatusError
	switch {
	case errors.As(err, &statusErr):
		s.writeJSON(w, statusErr.Code, simpleError{Error: firstNonEmpty(statusErr.Message, "Error posting profile to index")})
		return
	case err != nil:
		s.logger.Warn("publish profile failed", zap.String("cuid", cuid), zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, msgIndexDown)
		return
	}

	if err := s.store.SetNodeID(r.Context(), cuid, nodeID); err != nil {
		s.storageFailure(w, "record node id", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"node_id": nodeID})
}

func (s *Server) handleDeleteNode(w http.ResponseWriter, r *http.Request) {
	err := s.index.DeleteNode(r.Context(), r.PathValue("id"))
	var statusErr *index.StatusError
	switch {
	case err == nil:
		s.writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "Profile successfully deleted from index"})
	case errors.Is(err, index.ErrMissingNodeID):
		s.writeError(w, http.StatusBadRequest, "Missing node_id")
	case errors.As(err, &statusErr):
		s.writeError(w, statusErr.Code, firstNonEmpty(statusErr.Message, "Error deleting profile from index"))
	default:
		s.writeError(w, http.StatusInternalServerError, msgIndexDown)
	}
}

func (s *Server) handleUpdaterLookup(w http.ResponseWriter, r *http.Request) {
	profileURL := strings.TrimSpace(r.URL.Query().Get("url"))
	if profileURL == "" {
		s.writeJSON(w, http.StatusBadRequest, simpleError{Error: "Missing profile URL"})
		return
	}
	reply, err := s.index.NodeByURL(r.Context(), profileURL)
	s.relay(w, reply, err)
}

func (s *Server) handleUpdaterSync(w http.ResponseWriter, r *http.Request) {
	profileURL, ok := s.profileURLFromBody(w, r)
	if !ok {
		return
	}
	reply, err := s.index.SyncNode(r.Context(), profileURL)
	s.relay(w, reply, err)
}

func (s *Server) handleUpdaterDelete(w http.ResponseWriter, r *http.Request) {
	profileURL, ok := s.profileURLFromBody(w, r)
	if !ok {
		return
	}
	nodeID := index.NodeID(profileURL)
	err := s.index.DeleteNode(r.Context(), nodeID)
	var statusErr *index.StatusError
	switch {
	case err == nil:
		s.writeJSON(w, http.StatusOK, map[string]any{"data": map[string]string{"node_id": nodeID}})
	case errors.As(err, &statusErr):
		s.writeRaw(w, statusErr.Code, statusErr.Body)
	default:
		s.writeJSON(w, http.StatusInternalServerError, simpleError{Error: msgIndexUnavailable})
	}
}

func (s *Server) profileURLFromBody(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req struct {
		ProfileURL string `json:"profile_url"`
	}
	if err := decodeJSON(r, &req); err != nil || strings.TrimSpace(req.ProfileURL) == "" {
		s.writeJSON(w, http.StatusBadRequest, simpleError{Error: "Missing profile URL"})
		return "", false
	}
	return strings.TrimSpace(req.ProfileURL), true
}

// relay passes an Index reply body through with a 200; the updater page reads
// the Index status from the body.
func (s *Server) relay(w http.ResponseWriter, reply index.Reply, err error) {
	if err != nil {
		s.logger.Warn("index relay failed", zap.Error(err))
		s.writeJSON(w, http.StatusInternalServerError, simpleError{Error: msgIndexUnavailable})
		return
	}
	if reply.StatusCode >= http.StatusInternalServerError {
		s.logger.Warn("index relay upstream error", zap.Int("status", reply.StatusCode))
	}
	s.writeRaw(w, http.StatusOK, reply.Body)
}

// handleExplorerPage loads the schema and country lists in parallel.
func (s *Server) handleExplorerPage(w http.ResponseWriter, r *http.Request) {
	view := render.IndexExplorer{
		Title:         "Index Explorer",
		Authenticated: UserFromContext(r.Context()) != nil,
	}
	var (
		names     []string
		countries []string
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		names, err = s.catalog.ListSchemas(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		countries, err = s.catalog.Countries(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Warn("explorer lists failed", zap.Error(err))
		view.Error = msgLibraryDown
	}
	view.Schemas = render.SchemaOptions(names, []string{r.URL.Query().Get("schema")})
	view.Countries = countries
	s.renderPage(w, render.IndexExplorerPage, view)
}

func (s *Server) handleSearchNodes(w http.ResponseWriter, r *http.Request) {
	result, err := s.index.SearchNodes(r.Context(), r.URL.Query())
	var statusErr *index.StatusError
	switch {
	case err == nil:
		s.writeJSON(w, http.StatusOK, searchResponse{SearchResult: result, Status: http.StatusOK})
	case errors.As(err, &statusErr) && statusErr.Code == http.StatusBadRequest:
		s.writeJSON(w, http.StatusBadRequest, simpleError{Error: statusErr.Message})
	case errors.As(err, &statusErr):
		s.writeRaw(w, statusErr.Code, statusErr.Body)
	default:
		s.writeJSON(w, http.StatusInternalServerError, simpleError{Error: "Failed to load nodes: " + err.Error()})
	}
}
