package service

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/openauthlab/opd/internal/op/store"
	"github.com/openauthlab/opd/pkg/cryptox"
)

// UserInfoError is one of the fixed bearer-token failures. Handlers
// render it as the status with a WWW-Authenticate challenge and the
// code as the plain-text body.
type UserInfoError struct {
	Status      int
	Code        string
	Description string
}

func (e *UserInfoError) Error() string { return e.Code }

var (
	errTokenMissing  = &UserInfoError{http.StatusUnauthorized, "token_missing", "access token is required"}
	errTokenInvalid  = &UserInfoError{http.StatusUnauthorized, "invalid_token", "access token is invalid"}
	errTokenWrongUse = &UserInfoError{http.StatusForbidden, "invalid_token", "token is not an access token"}
	errTokenScope    = &UserInfoError{http.StatusForbidden, "forbidden", "token has no openid scope"}
	errTokenSubject  = &UserInfoError{http.StatusForbidden, "forbidden", "token has no subject"}
)

// UserInfoClaims is the scope-gated projection of a user's profile.
// sub is always present; everything else depends on the token's scopes.
type UserInfoClaims struct {
	Sub                 string  `json:"sub"`
	Name                string  `json:"name,omitempty"`
	GivenName           string  `json:"given_name,omitempty"`
	FamilyName          string  `json:"family_name,omitempty"`
	Locale              *string `json:"locale,omitempty"`
	Birthdate           *string `json:"birthdate,omitempty"`
	Email               *string `json:"email,omitempty"`
	EmailVerified       *bool   `json:"email_verified,omitempty"`
	PhoneNumber         *string `json:"phone_number,omitempty"`
	PhoneNumberVerified *bool   `json:"phone_number_verified,omitempty"`
	Address             *string `json:"address,omitempty"`
}

// UserInfoService resolves a bearer token to profile claims.
type UserInfoService struct {
	Store store.Store
}

// UserInfo walks the bearer-token gates and projects the claims the
// token's scopes allow. Failures are *UserInfoError values carrying
// their own status; anything else is an internal fault.
func (s *UserInfoService) UserInfo(ctx context.Context, authorization string) (*UserInfoClaims, error) {
	if authorization == "" {
		return nil, errTokenMissing
	}

	scheme, token, found := strings.Cut(authorization, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return nil, errTokenInvalid
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errTokenMissing
	}

	record, err := s.Store.AccessTokens().GetAccessTokenByHash(ctx, cryptox.FingerprintToken(token))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errTokenInvalid
		}
		return nil, err
	}

	if record.Expired(time.Now().UTC()) {
		return nil, errTokenInvalid
	}
	if record.TokenType != "access" {
		return nil, errTokenWrongUse
	}
	if !slices.Contains(record.Scopes, "openid") {
		return nil, errTokenScope
	}
	if record.Subject == nil || *record.Subject == "" {
		// Service tokens without a subject have no profile to project.
		return nil, errTokenSubject
	}

	user, err := s.Store.Users().GetUserByID(ctx, *record.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errTokenInvalid
		}
		return nil, err
	}

	claims := &UserInfoClaims{Sub: user.ID}

	if slices.Contains(record.Scopes, "profile") {
		claims.GivenName = user.GivenName
		claims.FamilyName = user.FamilyName
		claims.Name = user.Name()
		claims.Locale = user.Locale
		claims.Birthdate = user.Birthdate
	}
	if slices.Contains(record.Scopes, "email") && user.Email != nil {
		verified := false // no verification flow exists
		claims.Email = user.Email
		claims.EmailVerified = &verified
	}
	if slices.Contains(record.Scopes, "phone") && user.PhoneNumber != nil {
		verified := false
		claims.PhoneNumber = user.PhoneNumber
		claims.PhoneNumberVerified = &verified
	}
	if slices.Contains(record.Scopes, "address") {
		claims.Address = user.Address
	}

	return claims, nil
}
