package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

const (
	msgStorageDown = "Unable to connect to the database, please try again in a few minutes"
	msgIndexDown   = "Unable to connect to the Index service, please try again in a few minutes"
	msgLibraryDown = "Unable to connect to the Library service, please try again in a few minutes"
)

var errEmptyBody = errors.New("request body is empty")

type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn("write json response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorBody{Success: false, Error: message})
}

// writeRaw relays an upstream JSON body unchanged.
func (s *Server) writeRaw(w http.ResponseWriter, status int, body []byte) {
	if !json.Valid(body) {
		s.writeError(w, status, strings.TrimSpace(string(body)))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		s.logger.Warn("write response", zap.Error(err))
	}
}

func decodeJSON(r *http.Request, target any) error {
	raw, err := readBody(r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, errEmptyBody
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(raw) > maxBodyBytes {
		return nil, errors.New("request body is too large")
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, errEmptyBody
	}
	return raw, nil
}
