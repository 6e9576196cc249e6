package sqlite

import (
	"context"
	"time"

	"github.com/micrositio/authd/internal/auth/domain"
	"github.com/micrositio/authd/internal/auth/store"
)

type verificationCodesRepo struct {
	q querier
}

// Upsert relies on UNIQUE(user_id): issuing a new code silently replaces the
// previous one, so at most one live code exists per user.
func (r *verificationCodesRepo) Upsert(ctx context.Context, c domain.VerificationCode) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO verification_codes (id, user_id, code, purpose, expires_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE
		 SET code = excluded.code,
		     purpose = excluded.purpose,
		     expires_at = excluded.expires_at,
		     created_at = CURRENT_TIMESTAMP`,
		c.ID, c.UserID, c.Code, c.Purpose, c.ExpiresAt.UTC(),
	)
	return err
}

func (r *verificationCodesRepo) GetLive(ctx context.Context, userID, code, purpose string) (domain.VerificationCode, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT id, user_id, code, purpose, expires_at, created_at
		 FROM verification_codes
		 WHERE user_id = ? AND code = ? AND purpose = ?`,
		userID, code, purpose,
	)

	var c2 domain.VerificationCode
	err := row.Scan(&c2.ID, &c2.UserID, &c2.Code, &c2.Purpose, &c2.ExpiresAt, &c2.CreatedAt)
	if err != nil {
		return domain.VerificationCode{}, mapNotFound(err)
	}
	if c2.Expired(time.Now().UTC()) {
		return domain.VerificationCode{}, store.ErrNotFound
	}
	return c2, nil
}

func (r *verificationCodesRepo) DeleteForUser(ctx context.Context, userID string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM verification_codes WHERE user_id = ?`, userID)
	return err
}

func (r *verificationCodesRepo) DeleteExpired(ctx context.Context) error {
	_, err := r.q.ExecContext(ctx,
		`DELETE FROM verification_codes WHERE expires_at < ?`, time.Now().UTC())
	return err
}
