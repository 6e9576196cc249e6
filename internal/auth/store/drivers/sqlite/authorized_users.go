package sqlite

import (
	"context"

	"github.com/micrositio/authd/internal/auth/domain"
)

type authorizedUsersRepo struct {
	q querier
}

func (r *authorizedUsersRepo) GetByMatricula(ctx context.Context, matricula string) (domain.AuthorizedUser, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT id, matricula, email, created_at FROM authorized_users WHERE matricula = ?`,
		matricula,
	)

	var au domain.AuthorizedUser
	if err := row.Scan(&au.ID, &au.Matricula, &au.Email, &au.CreatedAt); err != nil {
		return domain.AuthorizedUser{}, mapNotFound(err)
	}
	return au, nil
}

func (r *authorizedUsersRepo) Create(ctx context.Context, au domain.AuthorizedUser) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO authorized_users (id, matricula, email) VALUES (?, ?, ?)`,
		au.ID, au.Matricula, au.Email,
	)
	return mapConstraint(err)
}
