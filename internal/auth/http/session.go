package http

import (
	"net/http"

	"github.com/micrositio/authd/internal/auth/domain"
	"github.com/micrositio/authd/internal/auth/service"
	"github.com/micrositio/authd/pkg/httpx"
)

// refreshCookieName is the legacy refresh cookie slot. This backend does not
// issue refresh cookies; the endpoints exist to honor the wire contract.
const refreshCookieName = "refreshToken"

// SessionHandler handles refresh, logout and the authenticated profile.
type SessionHandler struct {
	Sessions *service.SessionService
}

// UserResponse wraps the safe user projection.
type UserResponse struct {
	User domain.SafeUser `json:"user"`
}

// HandleRefresh handles POST /api/auth/refresh
//
//	@Summary		Refresh a session
//	@Description	Cookie-based refresh is not issued by this backend; the endpoint always answers 401. Active clients are kept alive through transparent near-expiry rotation instead.
//	@Tags			Auth
//	@Produce		json
//	@Failure		401	{object}	ErrorResponse	"No valid refresh token"
//	@Router			/api/auth/refresh [post].
func (h *SessionHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusUnauthorized, "No valid refresh token")
}

// HandleLogout handles POST /api/auth/logout
//
//	@Summary		Log out
//	@Description	Clears the refresh cookie and, when a valid bearer accompanies the call, deletes its session row.
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	MessageResponse	"Logged out"
//	@Router			/api/auth/logout [post].
func (h *SessionHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	// Best-effort server-side revocation for callers that send their bearer.
	h.Sessions.Logout(r.Context(), bearerToken(r))

	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})

	httpx.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Logged out"})
}

// HandleMe handles GET /api/auth/me (behind RequireSession)
//
//	@Summary		Current user
//	@Description	Returns the authenticated user's safe projection.
//	@Tags			Auth
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	UserResponse	"Authenticated user"
//	@Failure		401	{object}	ErrorResponse	"Invalid or missing bearer token"
//	@Router			/api/auth/me [get].
func (h *SessionHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := authenticatedUser(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Invalid or missing bearer token")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, UserResponse{User: user.Safe()})
}
