package sqlite

import (
	"context"
	"time"

	"github.com/micrositio/authd/internal/auth/domain"
)

type sessionsRepo struct {
	q querier
}

func (r *sessionsRepo) Create(ctx context.Context, s domain.Session) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, token_hash, kind, ip_address, user_agent, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.UserID, s.TokenHash, s.Kind, s.IPAddress, s.UserAgent, s.ExpiresAt,
	)
	return mapConstraint(err)
}

func (r *sessionsRepo) GetByTokenHash(ctx context.Context, tokenHash string) (domain.Session, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT id, user_id, token_hash, kind, ip_address, user_agent, expires_at, created_at
		 FROM sessions WHERE token_hash = ?`,
		tokenHash,
	)

	var s domain.Session
	err := row.Scan(&s.ID, &s.UserID, &s.TokenHash, &s.Kind, &s.IPAddress,
		&s.UserAgent, &s.ExpiresAt, &s.CreatedAt)
	if err != nil {
		return domain.Session{}, mapNotFound(err)
	}
	return s, nil
}

// Rotate swaps the token hash and expiry of the row in place, keeping the
// session identity (and its audit trail) intact across token refreshes.
func (r *sessionsRepo) Rotate(ctx context.Context, id string, newHash string, newExpiry time.Time) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE sessions SET token_hash = ?, expires_at = ? WHERE id = ?`,
		newHash, newExpiry, id,
	)
	return mapConstraint(err)
}

func (r *sessionsRepo) DeleteByID(ctx context.Context, id string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	return err
}

func (r *sessionsRepo) DeleteAllForUser(ctx context.Context, userID string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ?`, userID)
	return err
}

func (r *sessionsRepo) DeleteExpired(ctx context.Context) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < ?`, time.Now().UTC())
	return err
}
