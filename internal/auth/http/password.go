package http

import (
	"errors"
	"net/http"

	"github.com/micrositio/authd/internal/auth/service"
	"github.com/micrositio/authd/pkg/httpx"
)

// PasswordHandler handles the forgot/reset password flow.
type PasswordHandler struct {
	PasswordService *service.PasswordService
}

// ForgotPasswordRequest asks for a reset code by email.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest sets a new password using a live reset code.
type ResetPasswordRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"newPassword"`
}

// HandleForgot handles POST /api/auth/forgot-password
//
//	@Summary		Request a password reset code
//	@Description	Always answers with the same generic message so the response never reveals whether the address has an account.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		ForgotPasswordRequest	true	"Email address"
//	@Success		200		{object}	MessageResponse			"Generic acknowledgement"
//	@Failure		400		{object}	ErrorResponse			"Invalid email shape"
//	@Router			/api/auth/forgot-password [post].
func (h *PasswordHandler) HandleForgot(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.PasswordService.ForgotPassword(r.Context(), req.Email); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, MessageResponse{
		Message: "If an account exists for that address, a reset code has been sent",
	})
}

// HandleReset handles POST /api/auth/reset-password
//
//	@Summary		Reset the password
//	@Description	Validates a live reset code, applies the password policy, updates the hash, and revokes all sessions.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		ResetPasswordRequest	true	"Email, code and new password"
//	@Success		200		{object}	MessageResponse			"Password updated"
//	@Failure		400		{object}	ErrorResponse			"Invalid code or password"
//	@Router			/api/auth/reset-password [post].
func (h *PasswordHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.PasswordService.ResetPassword(r.Context(), req.Email, req.Code, req.NewPassword); err != nil {
		// Reset failures are 400-class: the caller holds a code, not a session.
		if errors.Is(err, service.ErrInvalidCode) {
			writeError(w, http.StatusBadRequest, "Invalid or expired code")
			return
		}
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, MessageResponse{
		Message: "Password updated, please log in again",
	})
}
