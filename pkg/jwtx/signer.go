package jwtx

// Signer is our interface for anything that can sign ID tokens.
type Signer interface {
	Alg() string
	KID() string
	Sign(IDTokenClaims) (string, error)
	PublicJWK() JWK
	Validate() error
}

// NewSignerRS256 creates an RS256 signer from PEM bytes.
func NewSignerRS256(kid string, pemKey []byte) (Signer, error) {
	return newRS256Signer(kid, pemKey)
}
