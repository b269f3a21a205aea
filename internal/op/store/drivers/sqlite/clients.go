package sqlite

import (
	"context"

	"github.com/openauthlab/opd/internal/op/domain"
)

type clientsRepo struct {
	db dbtx
}

func (r *clientsRepo) GetClientByID(ctx context.Context, id string) (domain.Client, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, secret, callback_urls, scopes, created_at, updated_at
		FROM clients
		WHERE id = ?`, id)

	var c domain.Client
	var callbacks, scopes string
	if err := row.Scan(&c.ID, &c.Name, &c.Secret, &callbacks, &scopes, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return domain.Client{}, mapNotFound(err)
	}

	c.CallbackURLs = splitAndFilter(callbacks)
	c.Scopes = splitAndFilter(scopes)
	return c, nil
}

func (r *clientsRepo) CreateClient(ctx context.Context, c domain.Client) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO clients (id, name, secret, callback_urls, scopes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`,
		c.ID, c.Name, c.Secret, joinFields(c.CallbackURLs), joinFields(c.Scopes))
	return err
}

func (r *clientsRepo) IsEmpty(ctx context.Context) (bool, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM clients`).Scan(&n); err != nil {
		return false, err
	}
	return n == 0, nil
}
