package sqlite

import "context"

type mailLogRepo struct {
	q querier
}

func (r *mailLogRepo) Create(ctx context.Context, recipient, subject, status, errMsg string) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO mail_log (recipient, subject, status, error) VALUES (?, ?, ?, ?)`,
		recipient, subject, status, errMsg,
	)
	return err
}
