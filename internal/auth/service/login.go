package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/micrositio/authd/internal/auth/domain"
	"github.com/micrositio/authd/internal/auth/store"
	"github.com/micrositio/authd/pkg/cryptox"
	"github.com/micrositio/authd/pkg/slogx"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account temporarily locked")
)

type LoginService struct {
	Store    store.Store
	Sessions *SessionService

	// LockoutThreshold is the failed-attempt count that triggers a lock.
	LockoutThreshold int
	// LockoutWindow is how long a triggered lock lasts.
	LockoutWindow time.Duration
}

// LoginResult reports the challenge token plus which second step the client
// must take next: entering a TOTP code or setting 2FA up first.
type LoginResult struct {
	TempToken     string
	TwoFactorSet  bool // enabled credential exists; client must enter a code
	RequiresSetup bool // no enabled credential; client must run setup
}

// Login checks the password under the lockout policy and, on success, issues
// a challenge session gating the TOTP step. The identifier may be an email
// address or a username.
func (s *LoginService) Login(ctx context.Context, identifier, password string, meta domain.RequestMeta) (LoginResult, error) {
	l := slogx.FromContext(ctx)

	v := &validator{}
	v.required("identifier", identifier)
	v.required("password", password)
	if err := v.err(); err != nil {
		return LoginResult{}, err
	}

	// 1. Resolve by email first, then username. A miss is reported exactly
	// like a wrong password so the response never leaks account existence.
	user, err := s.Store.Users().GetByEmail(ctx, identifier)
	if errors.Is(err, store.ErrNotFound) {
		user, err = s.Store.Users().GetByUsername(ctx, identifier)
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			l.Info("login failed: unknown identifier", "identifier", identifier, "ip", meta.IPAddress)
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, fmt.Errorf("resolve account: %w", err)
	}

	now := time.Now().UTC()

	// 2. Lockout check comes before the password so a locked account stays
	// locked even for the correct password.
	if user.Locked(now) {
		l.Info("login rejected: account locked", "user_id", user.ID, "locked_until", user.LockedUntil)
		return LoginResult{}, ErrAccountLocked
	}

	// 3. Password check. Failure bumps the counter and conditionally sets
	// the lock in one atomic statement.
	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		attempts, incErr := s.Store.Users().IncrementFailedLogins(ctx, user.ID, s.LockoutThreshold, now.Add(s.LockoutWindow))
		if incErr != nil {
			l.Error("failed to record failed login", "user_id", user.ID, "error", incErr)
		} else {
			l.Info("login failed: bad password", "user_id", user.ID, "attempts", attempts, "ip", meta.IPAddress)
		}
		return LoginResult{}, ErrInvalidCredentials
	}

	// 4. Success clears the counter and any lock.
	if err := s.Store.Users().ResetFailedLogins(ctx, user.ID); err != nil {
		return LoginResult{}, fmt.Errorf("reset failed logins: %w", err)
	}

	// 5. Decide the second step from the 2FA credential state.
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

	l.Info("login password accepted", "user_id", user.ID, "requires_setup", result.RequiresSetup)
	return result, nil
}
