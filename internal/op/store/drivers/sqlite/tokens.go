package sqlite

import (
	"context"
	"database/sql"

	"github.com/openauthlab/opd/internal/op/domain"
)

type tokensRepo struct {
	db dbtx
}

func (r *tokensRepo) CreateAccessToken(ctx context.Context, t domain.AccessToken) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO access_tokens (id, token_hash, token_type, client_id, subject, scopes, expires_in, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`,
		t.ID, t.TokenHash, t.TokenType, t.ClientID, mapOptionalString(t.Subject),
		joinFields(t.Scopes), mapOptionalInt64(t.ExpiresIn))
	return err
}

func (r *tokensRepo) GetAccessTokenByHash(ctx context.Context, hash string) (domain.AccessToken, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, token_hash, token_type, client_id, subject, scopes, expires_in, created_at
		FROM access_tokens
		WHERE token_hash = ?`, hash)

	var t domain.AccessToken
	var scopes string
	var subject sql.NullString
	var expiresIn sql.NullInt64
	err := row.Scan(&t.ID, &t.TokenHash, &t.TokenType, &t.ClientID, &subject, &scopes, &expiresIn, &t.CreatedAt)
	if err != nil {
		return domain.AccessToken{}, mapNotFound(err)
	}

	t.Subject = mapNullStringPtr(subject)
	t.Scopes = splitAndFilter(scopes)
	t.ExpiresIn = mapNullInt64Ptr(expiresIn)
	return t, nil
}

func (r *tokensRepo) DeleteExpiredAccessTokens(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM access_tokens
		WHERE expires_in IS NOT NULL
		  AND datetime(created_at, '+' || expires_in || ' seconds') < CURRENT_TIMESTAMP`)
	return err
}
