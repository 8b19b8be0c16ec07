package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/murmurations/go-murmurations/pkg/index"
	"github.com/murmurations/go-murmurations/pkg/profile"
	"github.com/murmurations/go-murmurations/pkg/store"
)

// profileRequest is the body of profile create and update calls. Profile may
// be a JSON object or a string holding one.
type profileRequest struct {
	Title         string          `json:"title"`
	LinkedSchemas []string        `json:"linked_schemas"`
	Profile       json.RawMessage `json:"profile"`
}

type profilesResponse struct {
	Profiles []store.Profile `json:"profiles"`
}

type profileResponse struct {
	Success bool          `json:"success"`
	Profile store.Profile `json:"profile"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	CUID    string `json:"cuid,omitempty"`
}

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	profiles, err := s.store.ListUserProfiles(r.Context(), user.ID)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		s.storageFailure(w, "list profiles", err)
		return
	}
	if profiles == nil {
		profiles = []store.Profile{}
	}
	s.writeJSON(w, http.StatusOK, profilesResponse{Profiles: profiles})
}

func (s *Server) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	doc, raw, err := profileDocument(req.Profile)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	if !s.validateForSave(w, r, doc) {
		return
	}

	saved := store.Profile{
		CUID:          uuid.NewString(),
		Title:         firstNonEmpty(req.Title, doc.Title()),
		LinkedSchemas: req.LinkedSchemas,
		Document:      raw,
		LastUpdated:   time.Now().UTC(),
	}
	if len(saved.LinkedSchemas) == 0 {
		saved.LinkedSchemas = doc.LinkedSchemas()
	}
	user := UserFromContext(r.Context())
	if err := s.store.SaveProfile(r.Context(), user.ID, saved); err != nil {
		s.storageFailure(w, "save profile", err)
		return
	}
	s.writeJSON(w, http.StatusOK, messageResponse{Success: true, CUID: saved.CUID})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	saved, err := s.store.GetProfile(r.Context(), user.ID, r.PathValue("cuid"))
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "Profile not found")
		return
	}
	if err != nil {
		s.storageFailure(w, "get profile", err)
		return
	}
	s.writeJSON(w, http.StatusOK, profileResponse{Success: true, Profile: saved})
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decodeJSON(r, &req); err != nil || strings.TrimSpace(req.Title) == "" {
		s.writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	doc, raw, err := profileDocument(req.Profile)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	if !s.validateForSave(w, r, doc) {
		return
	}

	user := UserFromContext(r.Context())
	saved, err := s.store.GetProfile(r.Context(), user.ID, r.PathValue("cuid"))
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "Failed to update profile")
		return
	}
	if err != nil {
		s.storageFailure(w, "load profile", err)
		return
	}
	saved.Title = req.Title
	saved.Document = raw
	saved.LastUpdated = time.Now().UTC()
	if len(req.LinkedSchemas) > 0 {
		saved.LinkedSchemas = req.LinkedSchemas
	} else if linked := doc.LinkedSchemas(); len(linked) > 0 {
		saved.LinkedSchemas = linked
	}
	if err := s.store.SaveProfile(r.Context(), user.ID, saved); err != nil {
		s.storageFailure(w, "update profile", err)
		return
	}
	s.writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "Profile updated successfully"})
}

func (s *Server) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	err := s.store.DeleteProfile(r.Context(), user.ID, r.PathValue("cuid"))
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "Failed to delete profile")
		return
	}
	if err != nil {
		s.storageFailure(w, "delete profile", err)
		return
	}
	s.writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "Profile deleted successfully"})
}

func (s *Server) handleSetNodeID(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NodeID string `json:"node_id"`
	}
	if err := decodeJSON(r, &req); err != nil || strings.TrimSpace(req.NodeID) == "" {
		s.writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	user := UserFromContext(r.Context())
	cuid := r.PathValue("cuid")
	if _, err := s.store.GetProfile(r.Context(), user.ID, cuid); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "Profile not found")
			return
		}
		s.storageFailure(w, "load profile", err)
		return
	}
	if err := s.store.SetNodeID(r.Context(), cuid, req.NodeID); err != nil {
		s.storageFailure(w, "set node id", err)
		return
	}
	s.writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "Node ID updated successfully"})
}

// validateForSave runs the Index validator before a profile is stored. It
// writes the failure response and reports false when saving must stop.
func (s *Server) validateForSave(w http.ResponseWriter, r *http.Request, doc profile.Object) bool {
	err := s.index.Validate(r.Context(), doc)
	if err == nil {
		return true
	}
	var (
		verr      *index.ValidationError
		statusErr *index.StatusError
	)
	switch {
	case errors.As(err, &verr):
		s.writeJSON(w, http.StatusUnprocessableEntity, validateResponse{Success: false, Errors: verr.Issues})
	case errors.As(err, &statusErr):
		s.writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "errors": firstNonEmpty(statusErr.Message, msgIndexDown)})
	default:
		s.logger.Warn("validate before save failed", zap.Error(err))
		s.writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "errors": msgIndexDown})
	}
	return false
}

func (s *Server) storageFailure(w http.ResponseWriter, op string, err error) {
	s.logger.Error(op+" failed", zap.Error(err))
	s.writeError(w, http.StatusInternalServerError, msgStorageDown)
}

// profileDocument accepts an embedded object or a string holding one and
// returns the decoded profile with its canonical encoding.
func profileDocument(raw json.RawMessage) (profile.Object, json.RawMessage, error) {
	if len(raw) == 0 {
		return nil, nil, errEmptyBody
	}
	var embedded string
	if err := json.Unmarshal(raw, &embedded); err == nil {
		raw = json.RawMessage(embedded)
	}
	doc, err := profile.Decode(raw)
	if err != nil {
		return nil, nil, err
	}
	canonical, err := json.Marshal(doc)
	if err != nil {
		return nil, nil, err
	}
	return doc, canonical, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
