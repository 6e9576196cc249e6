package domain

import "time"

// Verification code purposes.
const (
	CodePurposeEmail = "email" // legacy email-activation flow
	CodePurposeReset = "reset" // password recovery
)

// VerificationCode is a 6-digit out-of-band code. At most one live code exists
// per user; issuing a new one replaces the previous row.
type VerificationCode struct {
	ID        string
	UserID    string
	Code      string
	Purpose   string
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (c VerificationCode) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
