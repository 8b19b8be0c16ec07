package httpapi

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/murmurations/go-murmurations/pkg/dataproxy"
	"github.com/murmurations/go-murmurations/pkg/store"
)

func (s *Server) handleBatches(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	data, err := s.dataProxy.Batches(r.Context(), user.ID)
	var statusErr *dataproxy.StatusError
	switch {
	case err == nil:
		s.writeJSON(w, http.StatusOK, map[string]any{"data": data})
	case errors.As(err, &statusErr):
		s.writeError(w, statusErr.Code, "Failed to fetch batches data")
	default:
		s.logger.Warn("fetch batches failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, msgStorageDown)
	}
}

// handlePublicProfile serves the bare profile document; this is the URL the
// Index fetches.
func (s *Server) handlePublicProfile(w http.ResponseWriter, r *http.Request) {
	saved, err := s.store.PublicProfile(r.Context(), r.PathValue("cuid"))
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "Profile not found")
		return
	}
	if err != nil {
		s.logger.Error("public profile failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	document := saved.Document
	if len(document) == 0 {
		document = []byte("{}")
	}
	s.writeRaw(w, http.StatusOK, document)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.logger.Error("storage health check failed", zap.Error(err))
		s.writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "down"})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
