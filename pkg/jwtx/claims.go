package jwtx

import (
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// IDTokenClaims are the claims carried by an OpenID Connect ID token.
// Only the claims the code flow actually produces are modelled; keeping
// changes additive preserves compatibility for relying parties.
type IDTokenClaims struct {
	jwt.RegisteredClaims

	// Nonce echoes the value the client sent on the authorization
	// request, when it sent one.
	Nonce string `json:"nonce,omitempty"`

	// AuthTime is when the end-user last authenticated, as a Unix
	// timestamp.
	AuthTime int64 `json:"auth_time,omitempty"`
}

// NewIDTokenClaims builds minimally-correct ID token claims.
func NewIDTokenClaims(
	issuer, subject, clientID, nonce string,
	authTime time.Time,
	ttl time.Duration,
	now time.Time,
) IDTokenClaims {
	claims := IDTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings{clientID},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Nonce: nonce,
	}
	if !authTime.IsZero() {
		claims.AuthTime = authTime.Unix()
	}
	return claims
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *IDTokenClaims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}

	if c.Issuer != expected {
		return ErrIssuer
	}

	return nil
}

// ValidateAudience checks if at least one expected audience is present.
func (c *IDTokenClaims) ValidateAudience(expected []string) error {
	if len(expected) == 0 {
		return nil // nothing to enforce
	}

	for _, want := range expected {
		if slices.Contains(c.Audience, want) {
			return nil
		}
	}

	return ErrAudience
}

// ValidateExpiry ensures the token hasn't expired (exp) and isn't before nbf.
func (c *IDTokenClaims) ValidateExpiry() error {
	now := time.Now().UTC()

	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Time) {
		return ErrExpired
	}

	if c.NotBefore != nil && now.Before(c.NotBefore.Time) {
		return ErrNotYetValid
	}

	return nil
}
