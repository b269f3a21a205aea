package store

import (
	"context"
	"errors"

	"github.com/openauthlab/opd/internal/op/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrConnection signals the backing database is unreachable, as
	// opposed to a query that ran and found nothing. Handlers treat
	// the two differently so callers can tell an outage from a miss.
	ErrConnection = errors.New("store: connection failure")
)

// Store is the root data access interface. Concrete drivers (sqlite, or
// in-memory fakes in tests) implement this. It exposes sub-repositories
// to keep concerns tidy and testable. We can change having the sub-repos
// as methods later but we do it now so we can have more control and
// actively stop people from accidently doing transactions within
// transactions.
type Store interface {
	Clients() Clients
	Users() Users
	AuthorizationCodes() AuthorizationCodes
	AccessTokens() AccessTokens
	GrantedScopes() GrantedScopes

	ApplyMigrations() error

	// WithTx executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources (optional for sqlite).
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Clients interface {
	// GetClientByID fetches a client for authorize validation and
	// token exchange.
	GetClientByID(ctx context.Context, id string) (domain.Client, error)

	// CreateClient inserts a new client with its callback URLs and
	// allowed scopes.
	CreateClient(ctx context.Context, c domain.Client) error

	// IsEmpty returns true if there are no clients.
	IsEmpty(ctx context.Context) (bool, error)
}

type Users interface {
	// GetUserByID returns a user by subject identifier.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// Authenticate returns the user whose id and password digest both
	// match, or ErrNotFound.
	Authenticate(ctx context.Context, id, passwordDigest string) (domain.User, error)

	// CreateUser inserts a new user.
	CreateUser(ctx context.Context, u domain.User) error

	// IsEmpty returns true if there are no users.
	IsEmpty(ctx context.Context) (bool, error)
}

type AuthorizationCodes interface {
	// CreateAuthorizationCode stores a freshly minted authorization code.
	CreateAuthorizationCode(ctx context.Context, code domain.AuthorizationCode) error

	// GetAuthorizationCodeByHash fetches a code by its fingerprint.
	GetAuthorizationCodeByHash(ctx context.Context, hash string) (domain.AuthorizationCode, error)

	// DeleteAuthorizationCode removes a code by its fingerprint. Returns
	// ErrNotFound when no row was deleted, which is how racing
	// redeemers find out they lost.
	DeleteAuthorizationCode(ctx context.Context, hash string) error

	// DeleteExpiredAuthorizationCodes is optional housekeeping.
	DeleteExpiredAuthorizationCodes(ctx context.Context) error
}

type AccessTokens interface {
	// CreateAccessToken stores a new access token record.
	CreateAccessToken(ctx context.Context, t domain.AccessToken) error

	// GetAccessTokenByHash returns the token record by its fingerprint.
	GetAccessTokenByHash(ctx context.Context, hash string) (domain.AccessToken, error)

	// DeleteExpiredAccessTokens is optional housekeeping.
	DeleteExpiredAccessTokens(ctx context.Context) error
}

type GrantedScopes interface {
	// SaveGrantedScopes records approvals. Re-saving an existing
	// (client, user, scope) row is a no-op, not an error.
	SaveGrantedScopes(ctx context.Context, clientID, subject string, scopes []string) error

	// GetGrantedScopes returns every scope the user previously approved
	// for the client.
	GetGrantedScopes(ctx context.Context, clientID, subject string) ([]string, error)
}
