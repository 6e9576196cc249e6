package store

import (
	"context"
	"errors"
	"time"

	"github.com/micrositio/authd/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite, postgres)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable, and to actively stop callers from accidentally nesting
// transactions.
type Store interface {
	AuthorizedUsers() AuthorizedUsers
	Users() Users
	TwoFactor() TwoFactor
	BackupCodes() BackupCodes
	Sessions() Sessions
	VerificationCodes() VerificationCodes
	MailLog() MailLog

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed. This is the
	// recommended way to handle multi-step atomic operations.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type AuthorizedUsers interface {
	// GetByMatricula resolves an allowlist entry. Registration trusts the
	// email on this row, never the caller-supplied one.
	GetByMatricula(ctx context.Context, matricula string) (domain.AuthorizedUser, error)

	// Create seeds an allowlist entry (administrative use).
	Create(ctx context.Context, au domain.AuthorizedUser) error
}

type Users interface {
	GetByID(ctx context.Context, id string) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByUsername(ctx context.Context, username string) (domain.User, error)
	GetByMatricula(ctx context.Context, matricula string) (domain.User, error)

	// Create inserts a new user (id is provided by the app via ULID).
	// Unique violations on email/username/matricula map to ErrAlreadyExists.
	Create(ctx context.Context, u domain.User) error

	UpdatePasswordHash(ctx context.Context, userID string, newHash string) error
	SetActive(ctx context.Context, userID string, active bool) error

	// IncrementFailedLogins bumps the failed-attempt counter and, when the
	// post-increment count reaches threshold, sets locked_until=lockUntil,
	// all in one statement so concurrent failures cannot lose updates.
	// Returns the post-increment count.
	IncrementFailedLogins(ctx context.Context, userID string, threshold int, lockUntil time.Time) (int, error)

	// ResetFailedLogins clears the counter and any lock in one statement.
	ResetFailedLogins(ctx context.Context, userID string) error

	Delete(ctx context.Context, userID string) error
}

type TwoFactor interface {
	// Create inserts the credential with enabled=false. A concurrent insert
	// for the same user surfaces as ErrAlreadyExists; callers treat that as
	// the reuse branch, not a failure.
	Create(ctx context.Context, tf domain.TwoFactor) error

	GetByUserID(ctx context.Context, userID string) (domain.TwoFactor, error)

	// Enable flips enabled=true. Idempotent.
	Enable(ctx context.Context, id string) error

	DeleteByUserID(ctx context.Context, userID string) error
}

type BackupCodes interface {
	Create(ctx context.Context, userID string, codeHash string) error

	// Consume removes the code in a single statement and reports whether a
	// row was actually deleted. This is the atomic check-and-remove that
	// prevents double-spending a code from parallel requests.
	Consume(ctx context.Context, userID string, codeHash string) (bool, error)

	DeleteAllForUser(ctx context.Context, userID string) error
	CountForUser(ctx context.Context, userID string) (int, error)
}

type Sessions interface {
	Create(ctx context.Context, s domain.Session) error

	// GetByTokenHash returns the session by the token's fingerprint,
	// regardless of expiry; callers decide how stale is too stale.
	GetByTokenHash(ctx context.Context, tokenHash string) (domain.Session, error)

	// Rotate replaces the token hash and expiry of an existing row in place.
	Rotate(ctx context.Context, id string, newHash string, newExpiry time.Time) error

	DeleteByID(ctx context.Context, id string) error
	DeleteAllForUser(ctx context.Context, userID string) error
	DeleteExpired(ctx context.Context) error
}

type VerificationCodes interface {
	// Upsert writes the code for the user, replacing any previous one. At
	// most one live code exists per user.
	Upsert(ctx context.Context, c domain.VerificationCode) error

	// GetLive returns the user's code when it matches and has not expired.
	GetLive(ctx context.Context, userID, code, purpose string) (domain.VerificationCode, error)

	DeleteForUser(ctx context.Context, userID string) error
	DeleteExpired(ctx context.Context) error
}

type MailLog interface {
	// Create appends an outbound-mail audit row. Best-effort by callers.
	Create(ctx context.Context, recipient, subject, status, errMsg string) error
}
