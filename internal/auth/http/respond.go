package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/micrositio/authd/internal/auth/service"
	"github.com/micrositio/authd/pkg/httpx"
	"github.com/micrositio/authd/pkg/slogx"
)

// ErrorResponse is the wire shape for every failure.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

// MessageResponse is the wire shape for plain acknowledgements.
type MessageResponse struct {
	Message string `json:"message"`
	Email   string `json:"email,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	httpx.WriteJSON(w, status, ErrorResponse{Error: msg})
}

// writeServiceError maps service sentinels onto the HTTP error taxonomy.
// Anything unmapped is an internal error; the detail stays in the log.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		httpx.WriteJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "Validation failed",
			Details: verr.Violations,
		})
		return
	}

	switch {
	case errors.Is(err, service.ErrNotAuthorized):
		writeError(w, http.StatusForbidden, "You are not authorized to register")
	case errors.Is(err, service.ErrDuplicateAccount):
		writeError(w, http.StatusConflict, "An account already exists, please log in")
	case errors.Is(err, service.ErrUsernameTaken):
		writeError(w, http.StatusConflict, "Username already taken")
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, service.ErrAccountLocked):
		writeError(w, http.StatusLocked, "Account temporarily locked, try again later")
	case errors.Is(err, service.ErrInvalidChallenge), errors.Is(err, service.ErrInvalidSession):
		writeError(w, http.StatusUnauthorized, "Invalid or expired token")
	case errors.Is(err, service.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "User not found")
	case errors.Is(err, service.ErrAlreadyConfigured):
		writeError(w, http.StatusBadRequest, "Two-factor authentication is already enabled")
	case errors.Is(err, service.ErrNotConfigured):
		writeError(w, http.StatusBadRequest, "Two-factor authentication is not configured")
	case errors.Is(err, service.ErrInvalidCode):
		writeError(w, http.StatusUnauthorized, "Invalid or expired code")
	default:
		slogx.FromContext(r.Context()).Error("request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// decodeJSON reads the request body into dst, rejecting malformed JSON with
// a uniform 400.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	return true
}
