package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/micrositio/authd/internal/auth/domain"
)

type usersRepo struct {
	q querier
}

const userColumns = `id, email, username, matricula, password_hash, is_active,
	failed_login_attempts, locked_until, created_at, updated_at`

func (r *usersRepo) scanUser(row *sql.Row) (domain.User, error) {
	var u domain.User
	var lockedUntil sql.NullTime
	err := row.Scan(
		&u.ID, &u.Email, &u.Username, &u.Matricula, &u.PasswordHash,
		&u.IsActive, &u.FailedLogins, &lockedUntil, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	u.LockedUntil = mapNullTimePtr(lockedUntil)
	return u, nil
}

func (r *usersRepo) GetByID(ctx context.Context, id string) (domain.User, error) {
	return r.scanUser(r.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

func (r *usersRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.scanUser(r.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
}

func (r *usersRepo) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	return r.scanUser(r.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username))
}

func (r *usersRepo) GetByMatricula(ctx context.Context, matricula string) (domain.User, error) {
	return r.scanUser(r.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE matricula = ?`, matricula))
}

func (r *usersRepo) Create(ctx context.Context, u domain.User) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO users (id, email, username, matricula, password_hash, is_active)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Username, u.Matricula, u.PasswordHash, u.IsActive,
	)
	return mapConstraint(err)
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID string, newHash string) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		newHash, userID,
	)
	return err
}

func (r *usersRepo) SetActive(ctx context.Context, userID string, active bool) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE users SET is_active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		active, userID,
	)
	return err
}

// IncrementFailedLogins is a single read-modify-write statement: the counter
// bump and the conditional lock set happen together, so two concurrent failed
// logins can never lose an update or both observe a pre-threshold count.
func (r *usersRepo) IncrementFailedLogins(ctx context.Context, userID string, threshold int, lockUntil time.Time) (int, error) {
	row := r.q.QueryRowContext(ctx,
		`UPDATE users
		 SET failed_login_attempts = failed_login_attempts + 1,
		     locked_until = CASE
		         WHEN failed_login_attempts + 1 >= ? THEN ?
		         ELSE locked_until
		     END,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?
		 RETURNING failed_login_attempts`,
		threshold, lockUntil, userID,
	)

	var attempts int
	if err := row.Scan(&attempts); err != nil {
		return 0, mapNotFound(err)
	}
	return attempts, nil
}

func (r *usersRepo) ResetFailedLogins(ctx context.Context, userID string) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE users
		 SET failed_login_attempts = 0, locked_until = NULL, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		userID,
	)
	return err
}

func (r *usersRepo) Delete(ctx context.Context, userID string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, userID)
	return err
}
