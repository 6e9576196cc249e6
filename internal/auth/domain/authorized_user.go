package domain

import "time"

// AuthorizedUser is an allowlist entry seeded by an administrator. Only
// matricula/email pairs present here may register an account.
type AuthorizedUser struct {
	ID        string
	Matricula string
	Email     string
	CreatedAt time.Time
}
