package service_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/openauthlab/opd/internal/op/domain"
	"github.com/openauthlab/opd/internal/op/service"
	"github.com/openauthlab/opd/internal/op/store"
	"github.com/openauthlab/opd/internal/op/store/drivers/sqlite"
	"github.com/openauthlab/opd/pkg/cryptox"
	"github.com/openauthlab/opd/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer   = "http://localhost:8080"
	testCallback = "https://app/cb"
	testSecret   = "s3cret"
	testPassword = "password"
)

type testEnv struct {
	store     store.Store
	signer    jwtx.Signer
	authorize *service.AuthorizeService
	login     *service.LoginService
	codes     *service.CodeService
	tokens    *service.TokenService
	userinfo  *service.UserInfoService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Clients().CreateClient(ctx, domain.Client{
		ID:           "c1",
		Name:         "Test App",
		Secret:       testSecret,
		CallbackURLs: []string{testCallback, "https://app/alt"},
		Scopes:       []string{"openid", "profile", "email", "phone", "address"},
	}))

	email := "ada@example.com"
	phone := "+61 000 000 000"
	locale := "en-AU"
	require.NoError(t, s.Users().CreateUser(ctx, domain.User{
		ID:             "u1",
		PasswordDigest: cryptox.DigestPassword(testPassword),
		GivenName:      "Ada",
		FamilyName:     "Lovelace",
		Email:          &email,
		PhoneNumber:    &phone,
		Locale:         &locale,
	}))

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	pemKey := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	signer, err := jwtx.NewSignerRS256("1", pemKey)
	require.NoError(t, err)

	codes := &service.CodeService{Store: s, TTL: time.Minute}
	return &testEnv{
		store:     s,
		signer:    signer,
		authorize: &service.AuthorizeService{Store: s},
		login:     &service.LoginService{Store: s, Codes: codes},
		codes:     codes,
		tokens: &service.TokenService{
			Store:  s,
			Codes:  codes,
			Signer: signer,
			Issuer: testIssuer,
			TTL:    time.Hour,
		},
		userinfo: &service.UserInfoService{Store: s},
	}
}
