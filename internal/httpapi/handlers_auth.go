package httpapi

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/murmurations/go-murmurations/internal/auth"
	"github.com/murmurations/go-murmurations/pkg/store"
)

type loginRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	LoginType string `json:"loginType"`
}

type loginResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	UserEmail string `json:"userEmail"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	if req.Email == "" || req.Password == "" || req.LoginType == "" {
		s.writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	var (
		session store.Session
		message string
		err     error
	)
	switch req.LoginType {
	case "register":
		session, err = s.auth.Register(r.Context(), req.Email, req.Password)
		message = "Registration successful"
	case "login":
		session, err = s.auth.Login(r.Context(), req.Email, req.Password)
		message = "Login successful"
	default:
		s.writeError(w, http.StatusBadRequest, "Invalid action")
		return
	}

	switch {
	case errors.Is(err, auth.ErrUserExists):
		s.writeError(w, http.StatusBadRequest, "User already exists")
		return
	case errors.Is(err, auth.ErrInvalidCredentials):
		s.writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	case errors.Is(err, auth.ErrMissingFields):
		s.writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	case err != nil:
		s.logger.Error("login failed", zap.String("type", req.LoginType), zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, msgStorageDown)
		return
	}

	s.setSessionCookie(w, session.Token)
	s.writeJSON(w, http.StatusOK, loginResponse{Success: true, Message: message, UserEmail: req.Email})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(auth.SessionCookie); err == nil {
		if err := s.auth.Logout(r.Context(), cookie.Value); err != nil {
			s.logger.Error("logout failed", zap.Error(err))
			s.writeError(w, http.StatusInternalServerError, "Logout failed")
			return
		}
	}
	s.clearSessionCookie(w)
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Successful Logout"})
}
