package http_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/openauthlab/opd/internal/op/domain"
	httpapi "github.com/openauthlab/opd/internal/op/http"
	"github.com/openauthlab/opd/internal/op/service"
	"github.com/openauthlab/opd/internal/op/session"
	"github.com/openauthlab/opd/internal/op/store/drivers/sqlite"
	"github.com/openauthlab/opd/pkg/cryptox"
	"github.com/openauthlab/opd/pkg/jwtx"
	"github.com/openauthlab/opd/pkg/slogx"
)

const (
	testIssuer   = "http://localhost:8080"
	testCallback = "https://app/cb"
	testSecret   = "s3cret"
	testPassword = "password"
)

var testScopes = []string{"openid", "profile", "email", "phone", "address"}

// newTestServer stands up the full router over a seeded in-memory store
// and returns the server plus a cookie-carrying client that does not
// follow redirects, so tests can inspect each 302 in the flow.
func newTestServer(t *testing.T) (*httptest.Server, *http.Client) {
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
		Scopes:       testScopes,
	}))

	email := "ada@example.com"
	require.NoError(t, s.Users().CreateUser(ctx, domain.User{
		ID:             "u1",
		PasswordDigest: cryptox.DigestPassword(testPassword),
		GivenName:      "Ada",
		FamilyName:     "Lovelace",
		Email:          &email,
	}))

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	pemKey := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	signer, err := jwtx.NewSignerRS256("1", pemKey)
	require.NoError(t, err)

	sessions := session.NewManager("test-session-secret", false)
	codes := &service.CodeService{Store: s, TTL: time.Minute}

	router := httpapi.NewRouter(signer, testIssuer, testScopes, "test", s, sessions, slogx.Discard())
	router.AuthorizeService = &service.AuthorizeService{Store: s}
	router.LoginService = &service.LoginService{Store: s, Codes: codes}
	router.TokenService = &service.TokenService{
		Store:  s,
		Codes:  codes,
		Signer: signer,
		Issuer: testIssuer,
		TTL:    time.Hour,
	}
	router.UserInfoService = &service.UserInfoService{Store: s}
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return srv, client
}

func authorizeQuery(overrides map[string]string) url.Values {
	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", "c1")
	q.Set("redirect_uri", testCallback)
	q.Set("scope", "openid profile email")
	q.Set("state", "xyz")
	q.Set("nonce", "n-0S6_WzA2Mj")
	for k, v := range overrides {
		if v == "" {
			q.Del(k)
			continue
		}
		q.Set(k, v)
	}
	return q
}

func postForm(t *testing.T, client *http.Client, rawURL string, form url.Values) *http.Response {
	t.Helper()
	res, err := client.Post(rawURL, "application/x-www-form-urlencoded",
		strings.NewReader(form.Encode()))
	require.NoError(t, err)
	return res
}

func readBody(t *testing.T, res *http.Response) string {
	t.Helper()
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return string(body)
}

func decodeJSON(t *testing.T, res *http.Response, v any) {
	t.Helper()
	defer res.Body.Close()
	require.NoError(t, json.NewDecoder(res.Body).Decode(v))
}

// runToConsent drives authorize and login, returning the grant prompt scopes.
func runToConsent(t *testing.T, srv *httptest.Server, client *http.Client, q url.Values) []string {
	t.Helper()

	res, err := client.Get(srv.URL + "/op/authorize?" + q.Encode())
	require.NoError(t, err)
	body := readBody(t, res)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, body, "Test App")

	res = postForm(t, client, srv.URL+"/idp/login", url.Values{
		"username": {"u1"},
		"password": {testPassword},
	})
	require.Equal(t, http.StatusOK, res.StatusCode)

	var prompt struct {
		Op     string   `json:"op"`
		Scopes []string `json:"scopes"`
	}
	decodeJSON(t, res, &prompt)
	require.Equal(t, "GRANT", prompt.Op)
	return prompt.Scopes
}

// redeemCode walks the consent redirect and exchanges the code at the
// token endpoint, returning the decoded token response.
func redeemCode(t *testing.T, srv *httptest.Server, client *http.Client, location string) domain.TokenResponse {
	t.Helper()

	redirect, err := url.Parse(location)
	require.NoError(t, err)
	code := redirect.Query().Get("code")
	require.NotEmpty(t, code)

	form := url.Values{
		"grant_type":   {"authorization_code"},
		"code":         {code},
		"redirect_uri": {testCallback},
	}
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/op/token",
		strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth("c1", testSecret)

	res, err := client.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "no-store", res.Header.Get("Cache-Control"))

	var tokens domain.TokenResponse
	decodeJSON(t, res, &tokens)
	return tokens
}

func TestAuthorizationCodeFlow(t *testing.T) {
	srv, client := newTestServer(t)

	scopes := runToConsent(t, srv, client, authorizeQuery(nil))
	require.ElementsMatch(t, []string{"openid", "profile", "email"}, scopes)

	res := postForm(t, client, srv.URL+"/idp/consent", url.Values{
		"scope": {"openid", "profile", "email"},
	})
	readBody(t, res)
	require.Equal(t, http.StatusFound, res.StatusCode)

	location := res.Header.Get("Location")
	require.True(t, strings.HasPrefix(location, testCallback))
	redirect, err := url.Parse(location)
	require.NoError(t, err)
	require.Equal(t, "xyz", redirect.Query().Get("state"))

	tokens := redeemCode(t, srv, client, location)
	require.NotEmpty(t, tokens.AccessToken)
	require.Equal(t, "Bearer", tokens.TokenType)
	require.Equal(t, int64(3600), tokens.ExpiresIn)
	require.NotEmpty(t, tokens.IDToken)

	// Verify the ID token against the advertised JWKS.
	res, err = client.Get(srv.URL + "/op/jwks")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var keySet jwtx.JWKS
	decodeJSON(t, res, &keySet)
	require.Len(t, keySet.Keys, 1)
	require.Equal(t, "1", keySet.Keys[0].Kid)

	pub, err := keySet.Keys[0].PublicKey()
	require.NoError(t, err)

	claims := &jwtx.IDTokenClaims{}
	parsed, err := jwt.NewParser(jwt.WithValidMethods([]string{"RS256"})).
		ParseWithClaims(tokens.IDToken, claims, func(tok *jwt.Token) (any, error) {
			return pub, nil
		})
	require.NoError(t, err)
	require.True(t, parsed.Valid)
	require.Equal(t, testIssuer, claims.Issuer)
	require.Equal(t, "u1", claims.Subject)
	require.Equal(t, jwt.ClaimStrings{"c1"}, claims.Audience)
	require.Equal(t, "n-0S6_WzA2Mj", claims.Nonce)
	require.NotZero(t, claims.AuthTime)

	// The access token resolves to the claims its scopes allow.
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/op/userinfo", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
	res, err = client.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode)

	var info service.UserInfoClaims
	decodeJSON(t, res, &info)
	require.Equal(t, "u1", info.Sub)
	require.Equal(t, "Ada Lovelace", info.Name)
	require.NotNil(t, info.Email)
	require.Equal(t, "ada@example.com", *info.Email)
	require.NotNil(t, info.EmailVerified)
	require.False(t, *info.EmailVerified)
}

func TestSecondLoginSkipsConsent(t *testing.T) {
	srv, client := newTestServer(t)

	runToConsent(t, srv, client, authorizeQuery(nil))
	res := postForm(t, client, srv.URL+"/idp/consent", url.Values{
		"scope": {"openid", "profile", "email"},
	})
	readBody(t, res)
	require.Equal(t, http.StatusFound, res.StatusCode)

	// Standing consent covers the repeat request, so login goes straight
	// to the callback with a fresh code.
	res, err := client.Get(srv.URL + "/op/authorize?" + authorizeQuery(nil).Encode())
	require.NoError(t, err)
	readBody(t, res)
	require.Equal(t, http.StatusOK, res.StatusCode)

	res = postForm(t, client, srv.URL+"/idp/login", url.Values{
		"username": {"u1"},
		"password": {testPassword},
	})
	readBody(t, res)
	require.Equal(t, http.StatusFound, res.StatusCode)

	redirect, err := url.Parse(res.Header.Get("Location"))
	require.NoError(t, err)
	require.NotEmpty(t, redirect.Query().Get("code"))
	require.Equal(t, "xyz", redirect.Query().Get("state"))
}

func TestAuthorizeRejections(t *testing.T) {
	srv, client := newTestServer(t)

	t.Run("missing redirect_uri is a terminal 400", func(t *testing.T) {
		res, err := client.Get(srv.URL + "/op/authorize?" +
			authorizeQuery(map[string]string{"redirect_uri": ""}).Encode())
		require.NoError(t, err)
		readBody(t, res)
		require.Equal(t, http.StatusBadRequest, res.StatusCode)
	})

	t.Run("unregistered redirect_uri is a terminal 400", func(t *testing.T) {
		res, err := client.Get(srv.URL + "/op/authorize?" +
			authorizeQuery(map[string]string{"redirect_uri": "https://evil/cb"}).Encode())
		require.NoError(t, err)
		readBody(t, res)
		require.Equal(t, http.StatusBadRequest, res.StatusCode)
	})

	t.Run("missing response_type redirects with error", func(t *testing.T) {
		res, err := client.Get(srv.URL + "/op/authorize?" +
			authorizeQuery(map[string]string{"response_type": ""}).Encode())
		require.NoError(t, err)
		readBody(t, res)
		require.Equal(t, http.StatusFound, res.StatusCode)

		redirect, err := url.Parse(res.Header.Get("Location"))
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(res.Header.Get("Location"), testCallback))
		require.Equal(t, "invalid_request", redirect.Query().Get("error"))
		require.Equal(t, "xyz", redirect.Query().Get("state"))
	})

	t.Run("token response_type redirects with unsupported_response_type", func(t *testing.T) {
		res, err := client.Get(srv.URL + "/op/authorize?" +
			authorizeQuery(map[string]string{"response_type": "token"}).Encode())
		require.NoError(t, err)
		readBody(t, res)
		require.Equal(t, http.StatusFound, res.StatusCode)

		redirect, err := url.Parse(res.Header.Get("Location"))
		require.NoError(t, err)
		require.Equal(t, "unsupported_response_type", redirect.Query().Get("error"))
	})

	t.Run("scope without openid redirects with invalid_request", func(t *testing.T) {
		res, err := client.Get(srv.URL + "/op/authorize?" +
			authorizeQuery(map[string]string{"scope": "profile email"}).Encode())
		require.NoError(t, err)
		readBody(t, res)
		require.Equal(t, http.StatusFound, res.StatusCode)

		redirect, err := url.Parse(res.Header.Get("Location"))
		require.NoError(t, err)
		require.Equal(t, "invalid_request", redirect.Query().Get("error"))
	})
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	srv, client := newTestServer(t)

	res, err := client.Get(srv.URL + "/op/authorize?" + authorizeQuery(nil).Encode())
	require.NoError(t, err)
	readBody(t, res)
	require.Equal(t, http.StatusOK, res.StatusCode)

	res = postForm(t, client, srv.URL+"/idp/login", url.Values{
		"username": {"u1"},
		"password": {"not-the-password"},
	})
	body := readBody(t, res)
	require.Equal(t, http.StatusUnauthorized, res.StatusCode)
	require.Contains(t, body, "unauthorized")
}

func TestLoginWithoutAuthorizeRequest(t *testing.T) {
	srv, client := newTestServer(t)

	res := postForm(t, client, srv.URL+"/idp/login", url.Values{
		"username": {"u1"},
		"password": {testPassword},
	})
	body := readBody(t, res)
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	require.Contains(t, body, "invalid_request")
}

func TestCancelRedirectsAccessDenied(t *testing.T) {
	srv, client := newTestServer(t)

	res, err := client.Get(srv.URL + "/op/authorize?" + authorizeQuery(nil).Encode())
	require.NoError(t, err)
	readBody(t, res)
	require.Equal(t, http.StatusOK, res.StatusCode)

	res = postForm(t, client, srv.URL+"/idp/cancel", url.Values{})
	readBody(t, res)
	require.Equal(t, http.StatusFound, res.StatusCode)

	redirect, err := url.Parse(res.Header.Get("Location"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(res.Header.Get("Location"), testCallback))
	require.Equal(t, "access_denied", redirect.Query().Get("error"))
	require.Equal(t, "xyz", redirect.Query().Get("state"))
	require.Empty(t, redirect.Query().Get("code"))
}

func TestTokenEndpointRejections(t *testing.T) {
	srv, client := newTestServer(t)

	exchange := func(form url.Values, basic bool, secret string) *http.Response {
		req, err := http.NewRequest(http.MethodPost, srv.URL+"/op/token",
			strings.NewReader(form.Encode()))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		if basic {
			req.SetBasicAuth("c1", secret)
		}
		res, err := client.Do(req)
		require.NoError(t, err)
		return res
	}

	t.Run("unsupported grant type", func(t *testing.T) {
		res := exchange(url.Values{
			"grant_type":   {"client_credentials"},
			"code":         {"whatever"},
			"redirect_uri": {testCallback},
		}, true, testSecret)
		body := readBody(t, res)
		require.Equal(t, http.StatusBadRequest, res.StatusCode)
		require.Contains(t, body, "unsupported_grant_type")
	})

	t.Run("unknown code", func(t *testing.T) {
		res := exchange(url.Values{
			"grant_type":   {"authorization_code"},
			"code":         {"no-such-code"},
			"redirect_uri": {testCallback},
		}, true, testSecret)
		body := readBody(t, res)
		require.Equal(t, http.StatusBadRequest, res.StatusCode)
		require.Contains(t, body, "invalid_grant")
	})

	t.Run("bad client secret", func(t *testing.T) {
		scopes := runToConsent(t, srv, client, authorizeQuery(nil))
		res := postForm(t, client, srv.URL+"/idp/consent", url.Values{"scope": scopes})
		readBody(t, res)
		require.Equal(t, http.StatusFound, res.StatusCode)

		redirect, err := url.Parse(res.Header.Get("Location"))
		require.NoError(t, err)
		code := redirect.Query().Get("code")
		require.NotEmpty(t, code)

		tokenRes := exchange(url.Values{
			"grant_type":   {"authorization_code"},
			"code":         {code},
			"redirect_uri": {testCallback},
		}, true, "wrong-secret")
		body := readBody(t, tokenRes)
		require.Equal(t, http.StatusUnauthorized, tokenRes.StatusCode)
		require.Contains(t, tokenRes.Header.Get("WWW-Authenticate"), "Basic")
		require.Contains(t, body, "invalid_client")

		// The failed attempt consumed the code, so even the right
		// secret cannot redeem it now.
		retry := exchange(url.Values{
			"grant_type":   {"authorization_code"},
			"code":         {code},
			"redirect_uri": {testCallback},
		}, true, testSecret)
		body = readBody(t, retry)
		require.Equal(t, http.StatusBadRequest, retry.StatusCode)
		require.Contains(t, body, "invalid_grant")
	})
}

func TestUserInfoChallenges(t *testing.T) {
	srv, client := newTestServer(t)

	t.Run("missing token", func(t *testing.T) {
		res, err := client.Get(srv.URL + "/op/userinfo")
		require.NoError(t, err)
		body := readBody(t, res)
		require.Equal(t, http.StatusUnauthorized, res.StatusCode)
		require.Contains(t, res.Header.Get("WWW-Authenticate"), `error="token_missing"`)
		require.Equal(t, "token_missing", body)
	})

	t.Run("unknown token", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, srv.URL+"/op/userinfo", nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer not-a-real-token")
		res, err := client.Do(req)
		require.NoError(t, err)
		body := readBody(t, res)
		require.Equal(t, http.StatusUnauthorized, res.StatusCode)
		require.Contains(t, res.Header.Get("WWW-Authenticate"), `error="invalid_token"`)
		require.Equal(t, "invalid_token", body)
	})
}

func TestDiscoveryDocument(t *testing.T) {
	srv, client := newTestServer(t)

	res, err := client.Get(srv.URL + "/.well-known/openid-configuration")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode)

	var metadata httpapi.ProviderMetadata
	decodeJSON(t, res, &metadata)
	require.Equal(t, testIssuer, metadata.Issuer)
	require.Equal(t, testIssuer+"/op/authorize", metadata.AuthorizationEndpoint)
	require.Equal(t, testIssuer+"/op/token", metadata.TokenEndpoint)
	require.Equal(t, testIssuer+"/op/userinfo", metadata.UserInfoEndpoint)
	require.Equal(t, testIssuer+"/op/jwks", metadata.JWKSURI)
	require.Equal(t, []string{"code"}, metadata.ResponseTypesSupported)
	require.Equal(t, []string{"authorization_code"}, metadata.GrantTypesSupported)
	require.Equal(t, []string{"RS256"}, metadata.IDTokenSigningAlgValuesSupported)
	require.Equal(t, []string{"client_secret_basic"}, metadata.TokenEndpointAuthMethods)
	require.Contains(t, metadata.ScopesSupported, "openid")
}

func TestHealthEndpoints(t *testing.T) {
	srv, client := newTestServer(t)

	res, err := client.Get(srv.URL + "/livez")
	require.NoError(t, err)
	var live httpapi.HealthResponse
	decodeJSON(t, res, &live)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "ok", live.Status)
	require.Equal(t, "test", live.Version)

	res, err = client.Get(srv.URL + "/readyz")
	require.NoError(t, err)
	var ready httpapi.HealthResponse
	decodeJSON(t, res, &ready)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "ok", ready.Status)
	require.NotNil(t, ready.Checks)
	require.Equal(t, "ok", ready.Checks.Database)
	require.Equal(t, "ok", ready.Checks.Signer)
}
