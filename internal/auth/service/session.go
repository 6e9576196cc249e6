package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/micrositio/authd/internal/auth/domain"
	"github.com/micrositio/authd/internal/auth/store"
	"github.com/micrositio/authd/pkg/cryptox"
	"github.com/micrositio/authd/pkg/idx"
	"github.com/micrositio/authd/pkg/jwtx"
	"github.com/micrositio/authd/pkg/slogx"
)

var (
	ErrInvalidChallenge = errors.New("invalid or expired challenge token")
	ErrInvalidSession   = errors.New("invalid or expired session")
)

// SessionService owns the challenge-token and authenticated-session lifecycle.
// Challenge tokens are opaque random strings; authenticated sessions carry a
// signed bearer credential backed by a server-side session row, so revocation
// works despite the stateless-looking token.
type SessionService struct {
	Store    store.Store
	Signer   jwtx.Signer
	Verifier jwtx.Verifier
	Issuer   string

	ChallengeTTL      time.Duration
	SessionTTL        time.Duration
	RotationThreshold time.Duration
}

// IssueChallenge creates a short-lived challenge session for the user and
// returns the opaque token. Only the token's fingerprint is persisted.
func (s *SessionService) IssueChallenge(ctx context.Context, userID string, meta domain.RequestMeta) (string, error) {
	token, err := cryptox.GenerateToken(cryptox.TokenSize384)
	if err != nil {
		return "", fmt.Errorf("generate challenge token: %w", err)
	}

	now := time.Now().UTC()
	session := domain.Session{
		ID:        idx.New().String(),
		UserID:    userID,
		TokenHash: cryptox.FingerprintToken(token),
		Kind:      domain.SessionKindChallenge,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
		ExpiresAt: now.Add(s.ChallengeTTL),
		CreatedAt: now,
	}

	if err := s.Store.Sessions().Create(ctx, session); err != nil {
		return "", fmt.Errorf("create challenge session: %w", err)
	}

	return token, nil
}

// ResolveChallenge looks up a live challenge session by its opaque token.
func (s *SessionService) ResolveChallenge(ctx context.Context, token string) (domain.Session, error) {
	session, err := s.Store.Sessions().GetByTokenHash(ctx, cryptox.FingerprintToken(token))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Session{}, ErrInvalidChallenge
		}
		return domain.Session{}, fmt.Errorf("lookup challenge session: %w", err)
	}

	if session.Kind != domain.SessionKindChallenge || session.Expired(time.Now().UTC()) {
		return domain.Session{}, ErrInvalidChallenge
	}

	return session, nil
}

// IssueAuthSession mints a signed bearer token for the user and persists the
// backing session row. The token's fingerprint is the row's lookup key.
func (s *SessionService) IssueAuthSession(ctx context.Context, user domain.User, amr []string, meta domain.RequestMeta) (string, error) {
	now := time.Now().UTC()
	sessionID := idx.New().String()

	claims := jwtx.NewSessionClaims(
		user.ID, sessionID,
		amr,
		s.SessionTTL,
		s.Issuer,
		user.Email, user.Username,
		now,
	)

	token, err := s.Signer.Sign(claims)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}

	session := domain.Session{
		ID:        sessionID,
		UserID:    user.ID,
		TokenHash: cryptox.FingerprintToken(token),
		Kind:      domain.SessionKindAuth,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
		ExpiresAt: now.Add(s.SessionTTL),
		CreatedAt: now,
	}

	if err := s.Store.Sessions().Create(ctx, session); err != nil {
		return "", fmt.Errorf("create auth session: %w", err)
	}

	return token, nil
}

// AuthResult is what the request guard hands to protected handlers.
type AuthResult struct {
	User   domain.User
	Claims jwtx.Claims

	// RotatedToken is non-empty when the presented token was nearing expiry
	// and a replacement was minted. Handlers surface it via a response header.
	RotatedToken string
}

// Authenticate validates a bearer token end to end: signature and expiry via
// the verifier, then a live server-side session row by fingerprint. When the
// token has less than RotationThreshold left it is transparently replaced;
// rotation failures are logged and ignored so they never break a valid call.
func (s *SessionService) Authenticate(ctx context.Context, token string) (AuthResult, error) {
	l := slogx.FromContext(ctx)

	claims, err := s.Verifier.Verify(token)
	if err != nil {
		return AuthResult{}, ErrInvalidSession
	}

	session, err := s.Store.Sessions().GetByTokenHash(ctx, cryptox.FingerprintToken(token))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return AuthResult{}, ErrInvalidSession
		}
		return AuthResult{}, fmt.Errorf("lookup session: %w", err)
	}

	now := time.Now().UTC()
	if session.Kind != domain.SessionKindAuth || session.Expired(now) {
		return AuthResult{}, ErrInvalidSession
	}

	user, err := s.Store.Users().GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return AuthResult{}, ErrInvalidSession
		}
		return AuthResult{}, fmt.Errorf("load session user: %w", err)
	}

	result := AuthResult{User: user, Claims: claims}

	if claims.ExpiresWithin(s.RotationThreshold, now) {
		rotated, err := s.rotate(ctx, user, session, claims, now)
		if err != nil {
			l.Warn("session rotation failed", "session_id", session.ID, "error", err)
		} else {
			result.RotatedToken = rotated
		}
	}

	return result, nil
}

// rotate mints a replacement token and swaps it into the existing session row.
func (s *SessionService) rotate(ctx context.Context, user domain.User, session domain.Session, old jwtx.Claims, now time.Time) (string, error) {
	claims := jwtx.NewSessionClaims(
		user.ID, session.ID,
		old.AMR,
		s.SessionTTL,
		s.Issuer,
		user.Email, user.Username,
		now,
	)

	token, err := s.Signer.Sign(claims)
	if err != nil {
		return "", fmt.Errorf("sign rotated token: %w", err)
	}

	newExpiry := now.Add(s.SessionTTL)
	if err := s.Store.Sessions().Rotate(ctx, session.ID, cryptox.FingerprintToken(token), newExpiry); err != nil {
		return "", fmt.Errorf("rotate session row: %w", err)
	}

	return token, nil
}

// Logout deletes the session row backing the bearer token. Unknown or invalid
// tokens are ignored, logout always succeeds from the caller's perspective.
func (s *SessionService) Logout(ctx context.Context, token string) {
	if token == "" {
		return
	}

	session, err := s.Store.Sessions().GetByTokenHash(ctx, cryptox.FingerprintToken(token))
	if err != nil {
		return
	}
	if err := s.Store.Sessions().DeleteByID(ctx, session.ID); err != nil {
		slogx.FromContext(ctx).Warn("failed to delete session on logout", "session_id", session.ID, "error", err)
	}
}

// RevokeAllForUser drops every session owned by the user. Used after a
// password reset so stolen sessions die with the old password.
func (s *SessionService) RevokeAllForUser(ctx context.Context, userID string) error {
	return s.Store.Sessions().DeleteAllForUser(ctx, userID)
}
