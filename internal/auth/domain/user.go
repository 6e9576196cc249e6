package domain

import "time"

type User struct {
	ID           string
	Email        string
	Username     string
	Matricula    string // institutional identifier, 2 letters + 11 digits
	PasswordHash string // argon2 encoded
	IsActive     bool
	FailedLogins int
	LockedUntil  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SafeUser is the projection returned to clients. It never carries the
// password hash or lockout counters.
type SafeUser struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func (u User) Safe() SafeUser {
	return SafeUser{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

// Locked reports whether the account is under a temporary login lock at now.
func (u User) Locked(now time.Time) bool {
	return u.LockedUntil != nil && u.LockedUntil.After(now)
}
