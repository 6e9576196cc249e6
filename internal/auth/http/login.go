package http

import (
	"net/http"

	"github.com/micrositio/authd/internal/auth/service"
	"github.com/micrositio/authd/pkg/httpx"
)

// LoginHandler handles the password step of authentication.
type LoginHandler struct {
	LoginService *service.LoginService
}

// LoginRequest accepts an email address or username as the identifier.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// ChallengeResponse is shared by login and verify-email: a challenge token
// plus which 2FA step comes next. Exactly one of the two flags is set.
type ChallengeResponse struct {
	TempToken               string `json:"tempToken"`
	RequiresGoogleAuth      bool   `json:"requiresGoogleAuth,omitempty"`
	RequiresGoogleAuthSetup bool   `json:"requiresGoogleAuthSetup,omitempty"`
}

// ServeHTTP handles POST /api/auth/login
//
//	@Summary		Password login
//	@Description	Validates credentials under the lockout policy and issues a short-lived challenge token gating the TOTP step.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		LoginRequest		true	"Credentials"
//	@Success		200		{object}	ChallengeResponse	"Challenge token and required second step"
//	@Failure		401		{object}	ErrorResponse		"Invalid credentials"
//	@Failure		423		{object}	ErrorResponse		"Account locked"
//	@Failure		429		{object}	ErrorResponse		"Too many attempts"
//	@Router			/api/auth/login [post].
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.LoginService.Login(r.Context(), req.Identifier, req.Password, requestMeta(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, ChallengeResponse{
		TempToken:               result.TempToken,
		RequiresGoogleAuth:      result.TwoFactorSet,
		RequiresGoogleAuthSetup: result.RequiresSetup,
	})
}
