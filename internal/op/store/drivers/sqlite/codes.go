package sqlite

import (
	"context"
	"database/sql"

	"github.com/openauthlab/opd/internal/op/domain"
	"github.com/openauthlab/opd/internal/op/store"
)

type codesRepo struct {
	db dbtx
}

func (r *codesRepo) CreateAuthorizationCode(ctx context.Context, code domain.AuthorizationCode) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO authorization_codes
			(code_hash, client_id, subject, redirect_uri, scopes, nonce, auth_time, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`,
		code.CodeHash, code.ClientID, code.Subject, code.RedirectURI,
		joinFields(code.Scopes), mapOptionalString(code.Nonce),
		mapOptionalTime(code.AuthTime), code.ExpiresAt)
	return err
}

func (r *codesRepo) GetAuthorizationCodeByHash(ctx context.Context, hash string) (domain.AuthorizationCode, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT code_hash, client_id, subject, redirect_uri, scopes, nonce, auth_time, expires_at, created_at
		FROM authorization_codes
		WHERE code_hash = ?`, hash)

	var c domain.AuthorizationCode
	var scopes string
	var nonce sql.NullString
	var authTime sql.NullTime
	err := row.Scan(&c.CodeHash, &c.ClientID, &c.Subject, &c.RedirectURI,
		&scopes, &nonce, &authTime, &c.ExpiresAt, &c.CreatedAt)
	if err != nil {
		return domain.AuthorizationCode{}, mapNotFound(err)
	}

	c.Scopes = splitAndFilter(scopes)
	c.Nonce = mapNullStringPtr(nonce)
	c.AuthTime = mapNullTimePtr(authTime)
	return c, nil
}

func (r *codesRepo) DeleteAuthorizationCode(ctx context.Context, hash string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM authorization_codes WHERE code_hash = ?`, hash)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *codesRepo) DeleteExpiredAuthorizationCodes(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM authorization_codes WHERE expires_at < CURRENT_TIMESTAMP`)
	return err
}
