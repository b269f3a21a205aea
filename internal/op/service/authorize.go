package service

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"

	"github.com/openauthlab/opd/internal/op/store"
	"github.com/openauthlab/opd/pkg/slogx"
)

// responseTypes are the values the protocol defines. Anything else is
// an invalid_request; anything here other than "code" is recognised
// but unsupported.
var responseTypes = []string{
	"code",
	"token",
	"id_token",
	"id_token token",
	"code id_token",
	"code token",
	"code token id_token",
	"none",
}

// AuthorizeService validates incoming authorize requests against
// protocol rules and the client's registration.
type AuthorizeService struct {
	Store store.Store
}

// AuthorizeRequest captures the raw query parameters of an authorize request.
type AuthorizeRequest struct {
	ResponseType string
	ClientID     string
	RedirectURI  string
	Scope        string
	State        string
	Nonce        string
	ACRValues    string
}

// AuthorizedRequest is a validated request, ready to be parked in the
// session while the user logs in.
type AuthorizedRequest struct {
	ClientID    string
	ClientName  string // display name, for the login page
	Scope       string // space-delimited, as requested
	RedirectURI string
	Nonce       string
	State       string
}

// Validate runs the ordered protocol checks. Failures come in two
// flavours: a plain error means the destination cannot be trusted and
// the caller must answer 400 directly; a *RedirectError carries a
// structured protocol error to deliver on the redirect URI.
func (s *AuthorizeService) Validate(ctx context.Context, req AuthorizeRequest) (*AuthorizedRequest, error) {
	log := slogx.FromContext(ctx)

	// Without a redirect_uri there is nowhere trustworthy to deliver
	// structured errors, so everything below this check is terminal.
	if strings.TrimSpace(req.RedirectURI) == "" {
		return nil, ErrInvalidRequest
	}

	redirect := func(code, description string) *RedirectError {
		return &RedirectError{
			RedirectURI: req.RedirectURI,
			Code:        code,
			Description: description,
			State:       req.State,
		}
	}

	if req.ResponseType == "" {
		return nil, redirect("invalid_request", "response_type is required")
	}
	if !slices.Contains(responseTypes, req.ResponseType) {
		return nil, redirect("invalid_request", "invalid response_type")
	}
	if req.ResponseType != "code" {
		return nil, redirect("unsupported_response_type", "only the code flow is supported")
	}

	if req.ClientID == "" {
		return nil, redirect("invalid_request", "client_id is required")
	}

	client, err := s.Store.Clients().GetClientByID(ctx, req.ClientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// An unverified client's claimed redirect_uri cannot be
			// trusted either.
			return nil, ErrInvalidRequest
		}
		return nil, err
	}

	if !client.AllowsCallback(req.RedirectURI) {
		log.Info("authorize rejected: unregistered redirect_uri",
			slog.String("client_id", client.ID))
		return nil, ErrInvalidRequest
	}

	if req.Scope != "" {
		requested := strings.Fields(req.Scope)
		if !slices.Contains(requested, "openid") {
			return nil, redirect("invalid_request", "scope must include openid")
		}
		for _, scope := range requested {
			if !slices.Contains(client.Scopes, scope) {
				return nil, redirect("invalid_scope", "scope not allowed for this client")
			}
		}
	}

	if req.ACRValues != "" {
		return nil, redirect("invalid_request", "acr_values is not supported")
	}

	return &AuthorizedRequest{
		ClientID:    client.ID,
		ClientName:  client.Name,
		Scope:       req.Scope,
		RedirectURI: req.RedirectURI,
		Nonce:       req.Nonce,
		State:       req.State,
	}, nil
}
