package jwtx_test

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/openauthlab/opd/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func generatePKCS1PEM(t *testing.T) []byte {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
}

func generatePKCS8PEM(t *testing.T) []byte {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	return pem.EncodeToMemory(&pem.Block{
		Type:  "PRIVATE KEY",
		Bytes: der,
	})
}

func TestNewSignerRS256(t *testing.T) {
	t.Run("loads PKCS1 key", func(t *testing.T) {
		s, err := jwtx.NewSignerRS256("1", generatePKCS1PEM(t))
		require.NoError(t, err)
		require.NoError(t, s.Validate())
		require.Equal(t, "RS256", s.Alg())
		require.Equal(t, "1", s.KID())
	})

	t.Run("loads PKCS8 key", func(t *testing.T) {
		s, err := jwtx.NewSignerRS256("1", generatePKCS8PEM(t))
		require.NoError(t, err)
		require.NoError(t, s.Validate())
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := jwtx.NewSignerRS256("1", []byte("not a pem"))
		require.Error(t, err)
	})
}

func TestSignAndVerifyAgainstJWK(t *testing.T) {
	s, err := jwtx.NewSignerRS256("1", generatePKCS1PEM(t))
	require.NoError(t, err)

	now := time.Now().UTC()
	authTime := now.Add(-30 * time.Second)
	claims := jwtx.NewIDTokenClaims(
		"http://localhost:8080",
		"user-1",
		"client-1",
		"nonce-xyz",
		authTime,
		time.Hour,
		now,
	)

	raw, err := s.Sign(claims)
	require.NoError(t, err)

	// Verify with the published JWK only, the way a relying party would.
	pub, err := s.PublicJWK().PublicKey()
	require.NoError(t, err)

	parser := jwt.NewParser(jwt.WithValidMethods([]string{"RS256"}))
	parsed := &jwtx.IDTokenClaims{}
	token, err := parser.ParseWithClaims(raw, parsed, func(t *jwt.Token) (any, error) {
		return pub, nil
	})
	require.NoError(t, err)
	require.True(t, token.Valid)
	require.Equal(t, "1", token.Header["kid"])

	require.Equal(t, "http://localhost:8080", parsed.Issuer)
	require.Equal(t, "user-1", parsed.Subject)
	require.Equal(t, jwt.ClaimStrings{"client-1"}, parsed.Audience)
	require.Equal(t, "nonce-xyz", parsed.Nonce)
	require.Equal(t, authTime.Unix(), parsed.AuthTime)
	require.Equal(t, now.Add(time.Hour).Unix(), parsed.ExpiresAt.Unix())
}

func TestIDTokenClaimsOmitsEmptyNonce(t *testing.T) {
	s, err := jwtx.NewSignerRS256("1", generatePKCS1PEM(t))
	require.NoError(t, err)

	claims := jwtx.NewIDTokenClaims(
		"http://localhost:8080", "user-1", "client-1", "",
		time.Now(), time.Hour, time.Now(),
	)

	raw, err := s.Sign(claims)
	require.NoError(t, err)

	pub, err := s.PublicJWK().PublicKey()
	require.NoError(t, err)

	parsed := jwt.MapClaims{}
	_, err = jwt.NewParser().ParseWithClaims(raw, parsed, func(t *jwt.Token) (any, error) {
		return pub, nil
	})
	require.NoError(t, err)
	_, present := parsed["nonce"]
	require.False(t, present)
}

func TestValidateIssuer(t *testing.T) {
	c := &jwtx.IDTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "http://op.local"},
	}

	t.Run("matching issuer", func(t *testing.T) {
		require.NoError(t, c.ValidateIssuer("http://op.local"))
	})

	t.Run("empty expected issuer", func(t *testing.T) {
		require.NoError(t, c.ValidateIssuer(""))
	})

	t.Run("mismatched issuer", func(t *testing.T) {
		require.ErrorIs(t, c.ValidateIssuer("http://other"), jwtx.ErrIssuer)
	})
}

func TestValidateAudience(t *testing.T) {
	c := &jwtx.IDTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{Audience: []string{"client-1"}},
	}

	t.Run("contains match", func(t *testing.T) {
		require.NoError(t, c.ValidateAudience([]string{"client-1"}))
	})

	t.Run("no match", func(t *testing.T) {
		require.ErrorIs(t, c.ValidateAudience([]string{"client-2"}), jwtx.ErrAudience)
	})

	t.Run("empty expected list", func(t *testing.T) {
		require.NoError(t, c.ValidateAudience(nil))
	})
}

func TestValidateExpiry(t *testing.T) {
	now := time.Now().UTC()

	t.Run("valid token", func(t *testing.T) {
		claims := &jwtx.IDTokenClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
			},
		}
		require.NoError(t, claims.ValidateExpiry())
	})

	t.Run("expired token", func(t *testing.T) {
		claims := &jwtx.IDTokenClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute)),
			},
		}
		require.ErrorIs(t, claims.ValidateExpiry(), jwtx.ErrExpired)
	})

	t.Run("not yet valid", func(t *testing.T) {
		claims := &jwtx.IDTokenClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				NotBefore: jwt.NewNumericDate(now.Add(time.Minute)),
			},
		}
		require.ErrorIs(t, claims.ValidateExpiry(), jwtx.ErrNotYetValid)
	})
}
