package sqlite

import (
	"context"

	"github.com/openauthlab/opd/internal/op/store"
)

type grantedScopesRepo struct {
	db dbtx
}

var _ store.GrantedScopes = (*grantedScopesRepo)(nil)

func (r *grantedScopesRepo) SaveGrantedScopes(ctx context.Context, clientID, subject string, scopes []string) error {
	for _, scope := range scopes {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO granted_scopes (client_id, subject, scope, created_at)
			VALUES (?, ?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT (client_id, subject, scope) DO NOTHING`,
			clientID, subject, scope)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *grantedScopesRepo) GetGrantedScopes(ctx context.Context, clientID, subject string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT scope
		FROM granted_scopes
		WHERE client_id = ? AND subject = ?
		ORDER BY created_at, scope`, clientID, subject)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scopes []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		scopes = append(scopes, s)
	}
	return scopes, rows.Err()
}
