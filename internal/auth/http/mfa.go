package http

import (
	"net/http"

	"github.com/micrositio/authd/internal/auth/domain"
	"github.com/micrositio/authd/internal/auth/service"
	"github.com/micrositio/authd/pkg/httpx"
)

// MFAHandler handles 2FA setup and verification.
type MFAHandler struct {
	MFAService *service.MFAService
}

// SetupRequest names the account directly (fresh registration). Returning
// users present their challenge token as a bearer instead.
type SetupRequest struct {
	UserID string `json:"userId"`
}

// VerifyRequest carries the second-factor proof.
type VerifyRequest struct {
	UserID     string `json:"userId"`
	TOTPCode   string `json:"totpCode"`
	BackupCode string `json:"backupCode"`
}

// VerifyResponse is the authenticated session credential.
type VerifyResponse struct {
	Token string          `json:"token"`
	User  domain.SafeUser `json:"user"`
}

// HandleSetup handles POST /api/auth/setup-2fa
//
//	@Summary		Set up two-factor authentication
//	@Description	Creates or reuses the TOTP credential. Backup codes are returned in plaintext exactly once, on first creation.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		SetupRequest			false	"Account id (or present a challenge bearer token)"
//	@Success		200		{object}	domain.TwoFactorSetup	"QR artifact and backup codes"
//	@Failure		400		{object}	ErrorResponse			"Already enabled"
//	@Failure		401		{object}	ErrorResponse			"Invalid or expired challenge token"
//	@Failure		404		{object}	ErrorResponse			"User not found"
//	@Router			/api/auth/setup-2fa [post].
func (h *MFAHandler) HandleSetup(w http.ResponseWriter, r *http.Request) {
	var req SetupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	setup, err := h.MFAService.Setup(r.Context(), req.UserID, bearerToken(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, setup)
}

// HandleVerify handles POST /api/auth/verify-2fa
//
//	@Summary		Verify a TOTP or backup code
//	@Description	Validates the second factor, enables the credential on first success, and issues the authenticated session token.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		VerifyRequest	true	"TOTP or backup code plus account id (or challenge bearer token)"
//	@Success		200		{object}	VerifyResponse	"Bearer token and user projection"
//	@Failure		400		{object}	ErrorResponse	"Not configured"
//	@Failure		401		{object}	ErrorResponse	"Invalid token or code"
//	@Router			/api/auth/verify-2fa [post].
func (h *MFAHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.MFAService.Verify(r.Context(), service.VerifyInput{
		UserID:         req.UserID,
		ChallengeToken: bearerToken(r),
		TOTPCode:       req.TOTPCode,
		BackupCode:     req.BackupCode,
	}, requestMeta(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, VerifyResponse{
		Token: result.Token,
		User:  result.User,
	})
}
