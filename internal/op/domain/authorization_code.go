package domain

import "time"

// AuthorizationCode represents a single-use code issuance. The row is
// keyed by the code fingerprint, never the raw code.
type AuthorizationCode struct {
	CodeHash    string
	ClientID    string
	Subject     string
	RedirectURI string // bound at issuance, re-checked at exchange
	Scopes      []string
	Nonce       *string
	AuthTime    *time.Time
	ExpiresAt   time.Time
	CreatedAt   time.Time
}
