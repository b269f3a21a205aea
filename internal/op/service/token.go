package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/openauthlab/opd/internal/op/domain"
	"github.com/openauthlab/opd/internal/op/store"
	"github.com/openauthlab/opd/pkg/cryptox"
	"github.com/openauthlab/opd/pkg/idx"
	"github.com/openauthlab/opd/pkg/jwtx"
	"github.com/openauthlab/opd/pkg/slogx"
)

// DefaultTokenTTL is the access and ID token lifetime.
const DefaultTokenTTL = time.Hour

// TokenService redeems authorization codes for an access token and a
// signed ID token.
type TokenService struct {
	Store  store.Store
	Codes  *CodeService
	Signer jwtx.Signer
	Issuer string
	TTL    time.Duration // zero means DefaultTokenTTL
}

// ExchangeRequest carries the token endpoint's form fields plus the
// Basic credentials from the Authorization header.
type ExchangeRequest struct {
	GrantType   string
	Code        string
	RedirectURI string

	ClientID     string
	ClientSecret string
	HasBasicAuth bool
}

// Exchange runs the ordered redemption gates. Each gate is terminal on
// failure, and the code consume in the second gate is never rolled
// back: a code is single-use even when a later gate fails.
func (s *TokenService) Exchange(ctx context.Context, req ExchangeRequest) (*domain.TokenResponse, error) {
	log := slogx.FromContext(ctx)
	now := time.Now().UTC()

	if !strings.EqualFold(strings.TrimSpace(req.GrantType), "authorization_code") {
		return nil, ErrUnsupportedGrant
	}

	record, err := s.Codes.Consume(ctx, req.Code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidGrant
		}
		return nil, err
	}

	if !record.ExpiresAt.After(now) {
		log.Info("token exchange rejected: expired code", slog.String("client_id", record.ClientID))
		return nil, ErrInvalidGrant
	}

	client, err := s.Store.Clients().GetClientByID(ctx, record.ClientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidGrant
		}
		return nil, err
	}

	// Registered-list membership guards against endpoint mix-up; the
	// equality check pins the exchange to the exact URI the code was
	// issued for.
	if !client.AllowsCallback(req.RedirectURI) || req.RedirectURI != record.RedirectURI {
		return nil, ErrInvalidGrant
	}

	if !req.HasBasicAuth || !credentialsMatch(req.ClientID, req.ClientSecret, client) {
		log.Info("token exchange rejected: client authentication failed",
			slog.String("client_id", record.ClientID))
		return nil, ErrInvalidClient
	}

	ttl := s.TTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	ttlSeconds := int64(ttl / time.Second)

	accessToken, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return nil, err
	}

	subject := record.Subject
	tokenRecord := domain.AccessToken{
		ID:        string(idx.New()),
		TokenHash: cryptox.FingerprintToken(accessToken),
		TokenType: "access",
		ClientID:  client.ID,
		Subject:   &subject,
		Scopes:    record.Scopes,
		ExpiresIn: &ttlSeconds,
	}
	if err := s.Store.AccessTokens().CreateAccessToken(ctx, tokenRecord); err != nil {
		return nil, err
	}

	var nonce string
	if record.Nonce != nil {
		nonce = *record.Nonce
	}
	var authTime time.Time
	if record.AuthTime != nil {
		authTime = *record.AuthTime
	}

	claims := jwtx.NewIDTokenClaims(s.Issuer, record.Subject, client.ID, nonce, authTime, ttl, now)
	idToken, err := s.Signer.Sign(claims)
	if err != nil {
		return nil, err
	}

	return &domain.TokenResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   ttlSeconds,
		IDToken:     idToken,
	}, nil
}

// credentialsMatch compares the presented Basic credentials with the
// registered pair in constant time. Both halves are folded into one
// comparison so a wrong id and a wrong secret are indistinguishable.
func credentialsMatch(id, secret string, client domain.Client) bool {
	presented := []byte(id + ":" + secret)
	registered := []byte(client.ID + ":" + client.Secret)
	return subtle.ConstantTimeCompare(presented, registered) == 1
}
