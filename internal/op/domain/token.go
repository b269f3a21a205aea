package domain

import "time"

// TokenResponse is what the token endpoint returns, a bearer access
// token alongside the signed ID token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"` // always "Bearer"
	ExpiresIn   int64  `json:"expires_in"` // seconds until expiry
	IDToken     string `json:"id_token"`
}

// AccessToken models the stored access token record in the DB.
type AccessToken struct {
	ID        string
	TokenHash string // deterministic fingerprint (base64url SHA-256)
	TokenType string // always "access"; userinfo refuses anything else
	ClientID  string
	Subject   *string
	Scopes    []string
	ExpiresIn *int64 // seconds from CreatedAt; nil means no expiry recorded
	CreatedAt time.Time
}

// ExpiresAt returns the absolute expiry, or the zero time when the
// record carries no expiry.
func (t AccessToken) ExpiresAt() time.Time {
	if t.ExpiresIn == nil {
		return time.Time{}
	}
	return t.CreatedAt.Add(time.Duration(*t.ExpiresIn) * time.Second)
}

// Expired reports whether the token is past its expiry at the given
// instant. Tokens without a recorded expiry never expire.
func (t AccessToken) Expired(now time.Time) bool {
	exp := t.ExpiresAt()
	return !exp.IsZero() && now.After(exp)
}
