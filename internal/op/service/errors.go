package service

import (
	"errors"
	"net/url"
)

// User-visible sentinel errors. Handlers map these to fixed statuses
// and safe display messages; anything else is logged and reported as a
// generic internal error.
var (
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrInvalidAuthSession = errors.New("invalid_auth_session")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotFound           = errors.New("not_found")

	// Token endpoint errors, named after the OAuth error codes they
	// produce.
	ErrUnsupportedGrant = errors.New("unsupported_grant_type")
	ErrInvalidGrant     = errors.New("invalid_grant")
	ErrInvalidClient    = errors.New("invalid_client")
)

// RedirectError is a structured protocol error delivered to the client
// as a 302 with error params on the redirect URI, never as an HTTP
// error body.
type RedirectError struct {
	RedirectURI string
	Code        string // invalid_request, invalid_scope, ...
	Description string
	State       string // echoed back when the client sent one
}

func (e *RedirectError) Error() string { return e.Code }

// Location builds the redirect target carrying the error params.
func (e *RedirectError) Location() string {
	params := url.Values{}
	params.Set("error", e.Code)
	if e.Description != "" {
		params.Set("error_description", e.Description)
	}
	if e.State != "" {
		params.Set("state", e.State)
	}
	return appendQuery(e.RedirectURI, params)
}

// appendQuery attaches params to a URI, respecting any query string
// the client registered as part of its redirect URI.
func appendQuery(uri string, params url.Values) string {
	sep := "?"
	if u, err := url.Parse(uri); err == nil && u.RawQuery != "" {
		sep = "&"
	}
	return uri + sep + params.Encode()
}
