package http

import (
	"embed"
	"errors"
	"html/template"
	"net/http"

	"github.com/openauthlab/opd/internal/op/service"
	"github.com/openauthlab/opd/internal/op/session"
	"github.com/openauthlab/opd/pkg/slogx"
)

//go:embed templates/login.html
var templates embed.FS

var loginPage = template.Must(template.ParseFS(templates, "templates/login.html"))

// AuthorizeHandler serves GET/POST /op/authorize, the flow's entry point.
type AuthorizeHandler struct {
	AuthorizeService *service.AuthorizeService
	Sessions         *session.Manager
}

// ServeHTTP godoc
//
//	@Summary		Authorization Endpoint
//	@Description	Validates an OAuth2/OIDC authorization request and renders the login page.
//	@Description	Protocol errors are delivered as a 302 to the verified redirect_uri; requests
//	@Description	whose redirect_uri cannot be trusted fail with a direct 400.
//	@Tags			OP
//	@Produce		html
//	@Param			response_type	query		string	true	"Must be code"
//	@Param			client_id		query		string	true	"Client identifier"
//	@Param			redirect_uri	query		string	true	"Registered redirect URI (exact match)"
//	@Param			scope			query		string	false	"Space-delimited scopes, must include openid"
//	@Param			state			query		string	false	"Opaque client state, echoed back"
//	@Param			nonce			query		string	false	"Nonce bound into the ID token"
//	@Success		200				{string}	string	"login page"
//	@Failure		302				{string}	string	"redirect with error params"
//	@Failure		400				{object}	ErrorResponse
//	@Router			/op/authorize [get].
func (h *AuthorizeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	// Works for both GET query params and POST form bodies.
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed request body")
		return
	}

	// A fresh authorize request always starts clean: whatever a prior
	// flow left in the session must not leak into this one.
	h.Sessions.Clear(w)

	req := service.AuthorizeRequest{
		ResponseType: r.Form.Get("response_type"),
		ClientID:     r.Form.Get("client_id"),
		RedirectURI:  r.Form.Get("redirect_uri"),
		Scope:        r.Form.Get("scope"),
		State:        r.Form.Get("state"),
		Nonce:        r.Form.Get("nonce"),
		ACRValues:    r.Form.Get("acr_values"),
	}

	validated, err := h.AuthorizeService.Validate(ctx, req)
	if err != nil {
		var re *service.RedirectError
		if errors.As(err, &re) {
			http.Redirect(w, r, re.Location(), http.StatusFound)
			return
		}
		writeServiceError(w, r, err)
		return
	}

	if err := h.Sessions.Save(w, session.State{
		ClientID:    validated.ClientID,
		Scope:       validated.Scope,
		RedirectURI: validated.RedirectURI,
		Nonce:       validated.Nonce,
		State:       validated.State,
	}); err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := loginPage.Execute(w, map[string]string{
		"ClientName": validated.ClientName,
		"Scope":      validated.Scope,
	}); err != nil {
		log.Error("render login page", "err", err)
	}
}
