package sqlite

import (
	"context"

	"github.com/micrositio/authd/internal/auth/domain"
)

type twoFactorRepo struct {
	q querier
}

// Create inserts the credential. The UNIQUE(user_id) constraint is the single
// source of truth for the concurrent-setup race; a violation comes back as
// store.ErrAlreadyExists and callers fall back to reading the winner's row.
func (r *twoFactorRepo) Create(ctx context.Context, tf domain.TwoFactor) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO two_factor_auth (id, user_id, secret_key, is_enabled)
		 VALUES (?, ?, ?, ?)`,
		tf.ID, tf.UserID, tf.SecretKey, tf.Enabled,
	)
	return mapConstraint(err)
}

func (r *twoFactorRepo) GetByUserID(ctx context.Context, userID string) (domain.TwoFactor, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT id, user_id, secret_key, is_enabled, created_at, updated_at
		 FROM two_factor_auth WHERE user_id = ?`,
		userID,
	)

	var tf domain.TwoFactor
	err := row.Scan(&tf.ID, &tf.UserID, &tf.SecretKey, &tf.Enabled, &tf.CreatedAt, &tf.UpdatedAt)
	if err != nil {
		return domain.TwoFactor{}, mapNotFound(err)
	}
	return tf, nil
}

func (r *twoFactorRepo) Enable(ctx context.Context, id string) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE two_factor_auth SET is_enabled = 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		id,
	)
	return err
}

func (r *twoFactorRepo) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM two_factor_auth WHERE user_id = ?`, userID)
	return err
}
