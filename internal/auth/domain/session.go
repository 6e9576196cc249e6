package domain

import "time"

// Session kinds. A challenge session bridges the gap between a password
// check and TOTP verification; an auth session backs a full bearer login.
const (
	SessionKindChallenge = "challenge"
	SessionKindAuth      = "auth"
)

// Session is a server-side session row. Only the SHA-256 fingerprint of the
// bearer token is stored; the raw token lives exclusively with the client.
type Session struct {
	ID        string
	UserID    string
	TokenHash string
	Kind      string
	IPAddress string
	UserAgent string
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (s Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// RequestMeta carries the caller-side context every workflow receives instead
// of reading framework state: network origin, user agent and receive time.
type RequestMeta struct {
	IPAddress string
	UserAgent string
	At        time.Time
}
