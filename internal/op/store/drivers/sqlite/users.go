package sqlite

import (
	"context"
	"database/sql"

	"github.com/openauthlab/opd/internal/op/domain"
)

type usersRepo struct {
	db dbtx
}

const userColumns = `id, password_digest, given_name, family_name, display_name,
	email, phone_number, address, birthdate, locale, created_at, updated_at`

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = ?`, id)
	return scanUser(row)
}

func (r *usersRepo) Authenticate(ctx context.Context, id, passwordDigest string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = ? AND password_digest = ?`, id, passwordDigest)
	return scanUser(row)
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, password_digest, given_name, family_name, display_name,
			email, phone_number, address, birthdate, locale, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`,
		u.ID, u.PasswordDigest, u.GivenName, u.FamilyName,
		mapOptionalString(u.DisplayName), mapOptionalString(u.Email),
		mapOptionalString(u.PhoneNumber), mapOptionalString(u.Address),
		mapOptionalString(u.Birthdate), mapOptionalString(u.Locale))
	return err
}

func (r *usersRepo) IsEmpty(ctx context.Context) (bool, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return false, err
	}
	return n == 0, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (domain.User, error) {
	var u domain.User
	var displayName, email, phone, address, birthdate, locale sql.NullString

	err := row.Scan(&u.ID, &u.PasswordDigest, &u.GivenName, &u.FamilyName,
		&displayName, &email, &phone, &address, &birthdate, &locale,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}

	u.DisplayName = mapNullStringPtr(displayName)
	u.Email = mapNullStringPtr(email)
	u.PhoneNumber = mapNullStringPtr(phone)
	u.Address = mapNullStringPtr(address)
	u.Birthdate = mapNullStringPtr(birthdate)
	u.Locale = mapNullStringPtr(locale)
	return u, nil
}
