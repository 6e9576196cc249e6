package http

import (
	"errors"
	"net/http"

	"github.com/micrositio/authd/internal/auth/service"
	"github.com/micrositio/authd/pkg/httpx"
)

// EmailCodeHandler handles the numeric email-code flow.
type EmailCodeHandler struct {
	PasswordService *service.PasswordService
}

// SendEmailCodeRequest names the account to mail a code to.
type SendEmailCodeRequest struct {
	UserID string `json:"userId"`
}

// VerifyEmailRequest carries the code back.
type VerifyEmailRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// HandleSend handles POST /api/auth/send-email-code
//
//	@Summary		Send an email verification code
//	@Description	Issues a 6-digit code and mails it to the account's address. A delivery failure fails the request.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		SendEmailCodeRequest	true	"Account id"
//	@Success		200		{object}	MessageResponse			"Code sent"
//	@Failure		404		{object}	ErrorResponse			"User not found"
//	@Failure		500		{object}	ErrorResponse			"Mail delivery failed"
//	@Router			/api/auth/send-email-code [post].
func (h *EmailCodeHandler) HandleSend(w http.ResponseWriter, r *http.Request) {
	var req SendEmailCodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	email, err := h.PasswordService.SendEmailCode(r.Context(), req.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, MessageResponse{
		Message: "Verification code sent",
		Email:   email,
	})
}

// HandleVerify handles POST /api/auth/verify-email
//
//	@Summary		Verify an email code
//	@Description	Validates a live code, activates the account, and issues a challenge token for the 2FA step.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		VerifyEmailRequest	true	"Email and code"
//	@Success		200		{object}	ChallengeResponse	"Challenge token and required second step"
//	@Failure		400		{object}	ErrorResponse		"Invalid or expired code"
//	@Router			/api/auth/verify-email [post].
func (h *EmailCodeHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	var req VerifyEmailRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.PasswordService.VerifyEmail(r.Context(), req.Email, req.Code, requestMeta(r))
	if err != nil {
		// The whole flow reports invalid codes as 400 here, not 401.
		if errors.Is(err, service.ErrInvalidCode) {
			writeError(w, http.StatusBadRequest, "Invalid or expired code")
			return
		}
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, ChallengeResponse{
		TempToken:               result.TempToken,
		RequiresGoogleAuth:      result.TwoFactorSet,
		RequiresGoogleAuthSetup: result.RequiresSetup,
	})
}
