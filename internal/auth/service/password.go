package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/micrositio/authd/internal/auth/domain"
	"github.com/micrositio/authd/internal/auth/mail"
	"github.com/micrositio/authd/internal/auth/store"
	"github.com/micrositio/authd/pkg/cryptox"
	"github.com/micrositio/authd/pkg/idx"
	"github.com/micrositio/authd/pkg/slogx"
)

const emailCodeDigits = 6

// PasswordService handles the out-of-band numeric-code flows: email
// verification and password reset.
type PasswordService struct {
	Store    store.Store
	Sender   mail.Sender
	Sessions *SessionService

	CodeTTL time.Duration
}

// SendEmailCode issues a fresh 6-digit verification code for the user and
// mails it. A delivery failure is surfaced to the caller; without the mail
// the code is useless.
func (s *PasswordService) SendEmailCode(ctx context.Context, userID string) (string, error) {
	user, err := s.Store.Users().GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("load user: %w", err)
	}

	code, err := s.issueCode(ctx, user.ID, domain.CodePurposeEmail)
	if err != nil {
		return "", err
	}

	body := fmt.Sprintf("Your verification code is: %s\n\nIt expires in %d minutes.", code, int(s.CodeTTL.Minutes()))
	if err := s.Sender.Send(ctx, user.Email, "Your verification code", body); err != nil {
		return "", fmt.Errorf("send verification code: %w", err)
	}

	return user.Email, nil
}

// VerifyEmail validates a live email code, activates the account, and moves
// the caller into the 2FA step exactly like a successful password login.
func (s *PasswordService) VerifyEmail(ctx context.Context, email, code string, meta domain.RequestMeta) (LoginResult, error) {
	l := slogx.FromContext(ctx)

	v := &validator{}
	v.email(email)
	v.required("code", code)
	if err := v.err(); err != nil {
		return LoginResult{}, err
	}

	user, err := s.Store.Users().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return LoginResult{}, ErrInvalidCode
		}
		return LoginResult{}, fmt.Errorf("resolve account: %w", err)
	}

	if _, err := s.Store.VerificationCodes().GetLive(ctx, user.ID, code, domain.CodePurposeEmail); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return LoginResult{}, ErrInvalidCode
		}
		return LoginResult{}, fmt.Errorf("lookup verification code: %w", err)
	}

	if err := s.Store.Users().SetActive(ctx, user.ID, true); err != nil {
		return LoginResult{}, fmt.Errorf("activate user: %w", err)
	}
	if err := s.Store.VerificationCodes().DeleteForUser(ctx, user.ID); err != nil {
		l.Warn("failed to delete used verification code", "user_id", user.ID, "error", err)
	}

	result := LoginResult{}
	tf, err := s.Store.TwoFactor().GetByUserID(ctx, user.ID)
	switch {
	case err == nil && tf.Enabled:
		result.TwoFactorSet = true
	case err == nil || errors.Is(err, store.ErrNotFound):
		result.RequiresSetup = true
	default:
		return LoginResult{}, fmt.Errorf("lookup 2fa credential: %w", err)
	}

	token, err := s.Sessions.IssueChallenge(ctx, user.ID, meta)
	if err != nil {
		return LoginResult{}, err
	}
	result.TempToken = token

	l.Info("email verified", "user_id", user.ID)
	return result, nil
}

// ForgotPassword issues a reset code when the account exists. The caller
// always gets the same answer either way, so nothing leaks about which
// addresses have accounts.
func (s *PasswordService) ForgotPassword(ctx context.Context, email string) error {
	l := slogx.FromContext(ctx)

	v := &validator{}
	v.email(email)
	if err := v.err(); err != nil {
		return err
	}

	user, err := s.Store.Users().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Deliberate no-op; the generic response hides the miss.
			return nil
		}
		return fmt.Errorf("resolve account: %w", err)
	}

	code, err := s.issueCode(ctx, user.ID, domain.CodePurposeReset)
	if err != nil {
		return err
	}

	body := fmt.Sprintf("Your password reset code is: %s\n\nIt expires in %d minutes. If you did not request this, ignore this email.", code, int(s.CodeTTL.Minutes()))
	if err := s.Sender.Send(ctx, user.Email, "Password reset code", body); err != nil {
		// Best-effort; the generic response stands regardless.
		l.Warn("failed to send password reset code", "user_id", user.ID, "error", err)
	}

	return nil
}

// ResetPassword sets a new password after validating a live reset code, then
// revokes every session the user holds.
func (s *PasswordService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	l := slogx.FromContext(ctx)

	v := &validator{}
	v.email(email)
	v.required("code", code)
	v.password(newPassword)
	if err := v.err(); err != nil {
		return err
	}

	user, err := s.Store.Users().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidCode
		}
		return fmt.Errorf("resolve account: %w", err)
	}

	if _, err := s.Store.VerificationCodes().GetLive(ctx, user.ID, code, domain.CodePurposeReset); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidCode
		}
		return fmt.Errorf("lookup reset code: %w", err)
	}

	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.Store.Users().UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if err := s.Store.VerificationCodes().DeleteForUser(ctx, user.ID); err != nil {
		l.Warn("failed to delete used reset code", "user_id", user.ID, "error", err)
	}

	// Old sessions die with the old password.
	if err := s.Sessions.RevokeAllForUser(ctx, user.ID); err != nil {
		l.Warn("failed to revoke sessions after password reset", "user_id", user.ID, "error", err)
	}

	l.Info("password reset", "user_id", user.ID)
	return nil
}

// issueCode writes a fresh single-live code for the user, replacing any prior.
func (s *PasswordService) issueCode(ctx context.Context, userID, purpose string) (string, error) {
	code, err := cryptox.GenerateNumericCode(emailCodeDigits)
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}

	now := time.Now().UTC()
	vc := domain.VerificationCode{
		ID:        idx.New().String(),
		UserID:    userID,
		Code:      code,
		Purpose:   purpose,
		ExpiresAt: now.Add(s.CodeTTL),
		CreatedAt: now,
	}
	if err := s.Store.VerificationCodes().Upsert(ctx, vc); err != nil {
		return "", fmt.Errorf("store code: %w", err)
	}

	return code, nil
}
