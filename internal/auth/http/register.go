package http

import (
	"net/http"

	"github.com/micrositio/authd/internal/auth/service"
	"github.com/micrositio/authd/pkg/httpx"
)

// RegisterHandler handles account creation for allowlisted identities.
type RegisterHandler struct {
	RegisterService *service.RegisterService
}

// RegisterRequest is the registration payload.
type RegisterRequest struct {
	Matricula       string `json:"matricula"`
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	AcceptTerms     bool   `json:"acceptTerms"`
}

// RegisterResponse signals the client to proceed straight to 2FA setup.
type RegisterResponse struct {
	UserID                  string `json:"userId"`
	Email                   string `json:"email"`
	RequiresGoogleAuthSetup bool   `json:"requiresGoogleAuthSetup"`
}

// ServeHTTP handles POST /api/auth/register
//
//	@Summary		Register a new account
//	@Description	Creates an account for a pre-authorized matricula. The account email comes from the allowlist entry.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		RegisterRequest		true	"Registration payload"
//	@Success		201		{object}	RegisterResponse	"Account created, 2FA setup required"
//	@Failure		400		{object}	ErrorResponse		"Validation failed"
//	@Failure		403		{object}	ErrorResponse		"Matricula not authorized"
//	@Failure		409		{object}	ErrorResponse		"Account or username already exists"
//	@Router			/api/auth/register [post].
func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.RegisterService.Register(r.Context(), service.RegisterInput{
		Matricula:       req.Matricula,
		Username:        req.Username,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		AcceptTerms:     req.AcceptTerms,
	}, requestMeta(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, RegisterResponse{
		UserID:                  result.UserID,
		Email:                   result.Email,
		RequiresGoogleAuthSetup: true,
	})
}
