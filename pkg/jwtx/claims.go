package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultSessionTokenTTL is the default lifetime for session tokens.
// Short-lived for security - typical range is 15m to 1h.
const DefaultSessionTokenTTL = time.Hour

// Claims are session-token claims. We are keeping changes additive to
// preserve compatibility for later.
type Claims struct {
	jwt.RegisteredClaims

	// Session ID
	SID string `json:"sid,omitempty"`

	// Email of the authenticated user
	Email string `json:"email,omitempty"`

	// Username for the authenticated user
	Username string `json:"username,omitempty"`

	// Authentication Methods Reference ["pwd","otp"]
	// 		"pwd": Password-based Authentication
	//		"otp": One-time Password (e.g. TOTP)
	//		"bkp": Backup code
	// This is mainly for debugging purposes but can help with locking
	// access to require MFA for admin tasks.
	AMR []string `json:"amr,omitempty"`
}

// NewSessionClaims builds minimally-correct claims for an authenticated session.
func NewSessionClaims(
	subject, sid string,
	amr []string,
	ttl time.Duration,
	issuer string,
	email, username string,
	now time.Time,
) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		SID:      sid,
		Email:    email,
		Username: username,
		AMR:      amr,
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim. There
// might be a better way of doing this, but I'm being lazy and using random.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}

	if c.Issuer != expected {
		return ErrIssuer
	}

	return nil
}

// ValidateExpiry ensures the token hasn't expired (exp) and isn't before nbf.
func (c *Claims) ValidateExpiry() error {
	now := time.Now().UTC()

	// Check expired (exp)
	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Time) {
		return ErrExpired
	}

	// Check if a valid token isn't used before it is valid (nbf)
	if c.NotBefore != nil && now.Before(c.NotBefore.Time) {
		return ErrNotYetValid
	}

	return nil
}

// ExpiresWithin reports whether the token expires within d of now. Used to
// decide when a near-expiry token should be rotated.
func (c *Claims) ExpiresWithin(d time.Duration, now time.Time) bool {
	if c.ExpiresAt == nil {
		return false
	}
	return c.ExpiresAt.Time.Sub(now) <= d
}

// HasAMR reports whether the given authentication method is present.
func (c *Claims) HasAMR(method string) bool {
	return slices.Contains(c.AMR, method)
}
