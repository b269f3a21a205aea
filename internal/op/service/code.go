package service

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/openauthlab/opd/internal/op/domain"
	"github.com/openauthlab/opd/internal/op/store"
	"github.com/openauthlab/opd/pkg/cryptox"
)

// DefaultCodeTTL keeps codes alive just long enough for the client's
// immediate redemption round-trip.
const DefaultCodeTTL = 60 * time.Second

// CodeService mints and redeems one-time authorization codes.
type CodeService struct {
	Store store.Store
	TTL   time.Duration // zero means DefaultCodeTTL
}

// IssueParams is everything bound into a freshly minted code.
type IssueParams struct {
	ClientID    string
	Subject     string
	RedirectURI string
	Scope       string // space-delimited final scope string
	Nonce       string
	State       string
	AuthTime    time.Time // zero when unknown
}

// Issue mints a code, persists its record keyed by fingerprint, and
// returns the full callback URL to redirect the browser to.
func (s *CodeService) Issue(ctx context.Context, p IssueParams) (string, error) {
	code, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		return "", err
	}

	ttl := s.TTL
	if ttl <= 0 {
		ttl = DefaultCodeTTL
	}

	record := domain.AuthorizationCode{
		CodeHash:    cryptox.FingerprintToken(code),
		ClientID:    p.ClientID,
		Subject:     p.Subject,
		RedirectURI: p.RedirectURI,
		Scopes:      splitScope(p.Scope),
		ExpiresAt:   time.Now().UTC().Add(ttl),
	}
	if p.Nonce != "" {
		record.Nonce = &p.Nonce
	}
	if !p.AuthTime.IsZero() {
		at := p.AuthTime.UTC()
		record.AuthTime = &at
	}

	if err := s.Store.AuthorizationCodes().CreateAuthorizationCode(ctx, record); err != nil {
		return "", err
	}

	params := url.Values{}
	params.Set("code", code)
	if p.State != "" {
		params.Set("state", p.State)
	}
	return appendQuery(p.RedirectURI, params), nil
}

// Consume atomically finds and deletes the record for a raw code.
// Racing redeemers of the same code: exactly one gets the record, the
// rest get ErrNotFound. The delete is never rolled back by callers,
// so a consumed code stays gone even when a later exchange gate fails.
func (s *CodeService) Consume(ctx context.Context, code string) (domain.AuthorizationCode, error) {
	hash := cryptox.FingerprintToken(code)

	var record domain.AuthorizationCode
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		record, err = tx.AuthorizationCodes().GetAuthorizationCodeByHash(ctx, hash)
		if err != nil {
			return err
		}
		return tx.AuthorizationCodes().DeleteAuthorizationCode(ctx, hash)
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.AuthorizationCode{}, ErrNotFound
		}
		return domain.AuthorizationCode{}, err
	}
	return record, nil
}
