package http

import (
	"net/http"
	"strings"

	"github.com/openauthlab/opd/internal/op/service"
	"github.com/openauthlab/opd/internal/op/session"
	"github.com/openauthlab/opd/pkg/httpx"
)

// GrantPrompt asks the browser to collect consent for the listed scopes.
type GrantPrompt struct {
	Op     string   `json:"op"` // always "GRANT"
	Scopes []string `json:"scopes"`
}

// LoginHandler serves the /idp endpoints that sit between the authorize
// and code-issuance legs of the flow.
type LoginHandler struct {
	LoginService *service.LoginService
	Sessions     *session.Manager
}

// HandleLogin godoc
//
//	@Summary		End-User Login
//	@Description	Verifies the user's credentials within the pending authorization request.
//	@Description	Redirects straight to the client callback when every requested scope already
//	@Description	has standing consent; otherwise returns the scopes still needing approval.
//	@Tags			IDP
//	@Accept			application/x-www-form-urlencoded
//	@Produce		json
//	@Param			username	formData	string	true	"User identifier"
//	@Param			password	formData	string	true	"Password"
//	@Success		200			{object}	GrantPrompt	"op GRANT with the consent delta"
//	@Success		302			{string}	string		"redirect to client callback with code"
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Router			/idp/login [post].
func (h *LoginHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed request body")
		return
	}

	sess := h.Sessions.Load(r)
	res, err := h.LoginService.Login(r.Context(), sess, r.Form.Get("username"), r.Form.Get("password"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	// The session now carries the authenticated subject; the consent
	// leg depends on it.
	if err := h.Sessions.Save(w, res.Session); err != nil {
		writeServiceError(w, r, err)
		return
	}

	if res.RedirectURL != "" {
		http.Redirect(w, r, res.RedirectURL, http.StatusFound)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, GrantPrompt{Op: "GRANT", Scopes: res.PromptScopes})
}

// HandleConsent godoc
//
//	@Summary		Consent Approval
//	@Description	Records the scopes the user approved and redirects to the client callback
//	@Description	with a one-time authorization code.
//	@Tags			IDP
//	@Accept			application/x-www-form-urlencoded
//	@Param			scope	formData	string	false	"Approved scope, repeatable"
//	@Success		302		{string}	string	"redirect to client callback with code"
//	@Failure		400		{object}	ErrorResponse
//	@Router			/idp/consent [post].
func (h *LoginHandler) HandleConsent(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed request body")
		return
	}

	var approved []string
	for _, v := range r.Form["scope"] {
		approved = append(approved, strings.Fields(v)...)
	}

	sess := h.Sessions.Load(r)
	redirect, err := h.LoginService.Consent(r.Context(), sess, approved)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	// Flow complete; the session has served its purpose.
	h.Sessions.Clear(w)
	http.Redirect(w, r, redirect, http.StatusFound)
}

// HandleCancel godoc
//
//	@Summary		Cancel Authorization
//	@Description	The user declined. Redirects to the client's registered callback with
//	@Description	an access_denied error; no code is minted.
//	@Tags			IDP
//	@Success		302	{string}	string	"redirect with access_denied"
//	@Failure		400	{object}	ErrorResponse
//	@Router			/idp/cancel [post].
func (h *LoginHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	sess := h.Sessions.Load(r)
	redirect, err := h.LoginService.Cancel(r.Context(), sess)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.Sessions.Clear(w)
	http.Redirect(w, r, redirect, http.StatusFound)
}
