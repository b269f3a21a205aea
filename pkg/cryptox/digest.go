package cryptox

import (
	"crypto/sha256"
	"encoding/hex"
)

// DigestPassword returns the lowercase hex SHA-256 digest of a password.
// The user directory stores this digest, never the plaintext; login compares
// digests.
func DigestPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}
