package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/openauthlab/opd/internal/op/service"
	"github.com/openauthlab/opd/pkg/httpx"
	"github.com/openauthlab/opd/pkg/slogx"
)

// TokenHandler serves POST /op/token.
// Accepts application/x-www-form-urlencoded per the RFC 6749 framework.
type TokenHandler struct {
	TokenService *service.TokenService
}

// ServeHTTP godoc
//
//	@Summary		Token Endpoint
//	@Description	Exchanges a one-time authorization code for an opaque access token and a
//	@Description	signed ID token. The client authenticates with HTTP Basic credentials.
//	@Tags			OP
//	@Accept			application/x-www-form-urlencoded
//	@Produce		json
//	@Param			grant_type		formData	string	true	"Must be authorization_code"
//	@Param			code			formData	string	true	"Authorization code"
//	@Param			redirect_uri	formData	string	true	"Redirect URI the code was issued for"
//	@Success		200				{object}	domain.TokenResponse	"access_token, token_type, expires_in, id_token"
//	@Failure		400				{object}	ErrorResponse
//	@Failure		401				{object}	ErrorResponse
//	@Header			200				{string}	Cache-Control	"no-store"
//	@Header			200				{string}	Pragma			"no-cache"
//	@Router			/op/token [post].
func (h *TokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := slogx.FromContext(r.Context())

	if ct := r.Header.Get("Content-Type"); ct != "" &&
		!strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
		writeError(w, http.StatusBadRequest, "invalid_request", "unsupported content type")
		return
	}

	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed request body")
		return
	}

	clientID, clientSecret, hasBasic := r.BasicAuth()

	resp, err := h.TokenService.Exchange(r.Context(), service.ExchangeRequest{
		GrantType:    r.Form.Get("grant_type"),
		Code:         strings.TrimSpace(r.Form.Get("code")),
		RedirectURI:  strings.TrimSpace(r.Form.Get("redirect_uri")),
		ClientID:     clientID,
		ClientSecret: clientSecret,
		HasBasicAuth: hasBasic,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnsupportedGrant):
			writeError(w, http.StatusBadRequest, "unsupported_grant_type", "only authorization_code is supported")
		case errors.Is(err, service.ErrInvalidGrant):
			writeError(w, http.StatusBadRequest, "invalid_grant", "code is invalid, expired, or already redeemed")
		case errors.Is(err, service.ErrInvalidClient):
			w.Header().Set("WWW-Authenticate", `Basic realm="token"`)
			writeError(w, http.StatusUnauthorized, "invalid_client", "client authentication failed")
		default:
			log.Error("token exchange failed", "err", err)
			writeError(w, http.StatusInternalServerError, "server_error", "internal error, try again later")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, resp)
}
