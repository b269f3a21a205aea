package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/openauthlab/opd/internal/op/session"
	"github.com/openauthlab/opd/internal/op/store"
	"github.com/openauthlab/opd/pkg/cryptox"
	"github.com/openauthlab/opd/pkg/slogx"
)

// LoginService authenticates end-users and walks them through consent.
type LoginService struct {
	Store store.Store
	Codes *CodeService
}

// LoginResult is either a finished flow (RedirectURL set) or a consent
// prompt (PromptScopes non-empty). Session carries the updated state
// the handler must seal back into the cookie.
type LoginResult struct {
	Session      session.State
	PromptScopes []string
	RedirectURL  string
}

// Login verifies credentials against the stored digest, records the
// authenticated subject in the session, and either issues a code right
// away (nothing new to consent to) or returns the scope delta that
// still needs the user's approval.
func (s *LoginService) Login(ctx context.Context, sess session.State, username, password string) (*LoginResult, error) {
	log := slogx.FromContext(ctx)

	if !sess.Authorizing() {
		return nil, ErrInvalidAuthSession
	}
	if username == "" || password == "" {
		return nil, ErrUnauthorized
	}

	user, err := s.Store.Users().Authenticate(ctx, username, cryptox.DigestPassword(password))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Info("login failed", slog.String("username", username))
			return nil, ErrUnauthorized
		}
		return nil, err
	}

	now := time.Now().UTC()
	sess.Subject = user.ID
	sess.AuthTime = now.Unix()

	requested := splitScope(sess.Scope)
	granted, err := s.Store.GrantedScopes().GetGrantedScopes(ctx, sess.ClientID, user.ID)
	if err != nil {
		return nil, err
	}

	delta := scopeDelta(requested, granted)
	if len(delta) > 0 {
		return &LoginResult{Session: sess, PromptScopes: delta}, nil
	}

	// Every requested scope already has standing consent.
	redirect, err := s.Codes.Issue(ctx, IssueParams{
		ClientID:    sess.ClientID,
		Subject:     user.ID,
		RedirectURI: sess.RedirectURI,
		Scope:       joinScope(requested),
		Nonce:       sess.Nonce,
		State:       sess.State,
		AuthTime:    now,
	})
	if err != nil {
		return nil, err
	}
	return &LoginResult{Session: sess, RedirectURL: redirect}, nil
}

// Consent records the scopes the user approved, unions them with any
// standing grants, and issues the code. Approving nothing new is fine;
// the code simply carries whatever was already granted.
func (s *LoginService) Consent(ctx context.Context, sess session.State, approved []string) (string, error) {
	if !sess.Authorizing() || !sess.Authenticated() {
		return "", ErrInvalidAuthSession
	}

	if len(approved) > 0 {
		if err := s.Store.GrantedScopes().SaveGrantedScopes(ctx, sess.ClientID, sess.Subject, approved); err != nil {
			return "", err
		}
	}

	granted, err := s.Store.GrantedScopes().GetGrantedScopes(ctx, sess.ClientID, sess.Subject)
	if err != nil {
		return "", err
	}
	final := unionScopes(granted, approved)

	return s.Codes.Issue(ctx, IssueParams{
		ClientID:    sess.ClientID,
		Subject:     sess.Subject,
		RedirectURI: sess.RedirectURI,
		Scope:       joinScope(final),
		Nonce:       sess.Nonce,
		State:       sess.State,
		AuthTime:    time.Unix(sess.AuthTime, 0).UTC(),
	})
}

// Cancel handles the user denying the request. The browser goes back
// to the client's first registered callback with access_denied; no
// state is persisted and no code is minted.
func (s *LoginService) Cancel(ctx context.Context, sess session.State) (string, error) {
	if !sess.Authorizing() {
		return "", ErrInvalidAuthSession
	}

	client, err := s.Store.Clients().GetClientByID(ctx, sess.ClientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrInvalidAuthSession
		}
		return "", err
	}
	if len(client.CallbackURLs) == 0 {
		return "", ErrInvalidAuthSession
	}

	e := &RedirectError{
		RedirectURI: client.CallbackURLs[0],
		Code:        "access_denied",
		Description: "the user denied the request",
		State:       sess.State,
	}
	return e.Location(), nil
}
