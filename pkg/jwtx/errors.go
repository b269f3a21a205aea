package jwtx

import "errors"

var (
	// ErrIssuer means the iss claim did not match the expected issuer.
	ErrIssuer = errors.New("jwtx: issuer mismatch")

	// ErrAudience means none of the expected audiences were present.
	ErrAudience = errors.New("jwtx: audience mismatch")

	// ErrExpired means the token is past its exp claim.
	ErrExpired = errors.New("jwtx: token expired")

	// ErrNotYetValid means the token was used before its nbf claim.
	ErrNotYetValid = errors.New("jwtx: token not yet valid")
)
