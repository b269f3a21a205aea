package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/openauthlab/opd/internal/op/service"
	"github.com/openauthlab/opd/pkg/httpx"
	"github.com/openauthlab/opd/pkg/slogx"
)

// UserInfoHandler serves GET/POST /op/userinfo.
type UserInfoHandler struct {
	UserInfoService *service.UserInfoService
}

// ServeHTTP godoc
//
//	@Summary		UserInfo Endpoint
//	@Description	Resolves a bearer access token to the profile claims its scopes allow.
//	@Description	Failures carry a WWW-Authenticate challenge and the error code as a
//	@Description	plain-text body.
//	@Tags			OP
//	@Produce		json
//	@Param			Authorization	header		string	true	"Bearer access token"
//	@Success		200				{object}	service.UserInfoClaims
//	@Failure		401				{string}	string	"token_missing or invalid_token"
//	@Failure		403				{string}	string	"invalid_token or forbidden"
//	@Router			/op/userinfo [get].
func (h *UserInfoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	claims, err := h.UserInfoService.UserInfo(r.Context(), r.Header.Get("Authorization"))
	if err != nil {
		var uie *service.UserInfoError
		if errors.As(err, &uie) {
			w.Header().Set("WWW-Authenticate",
				fmt.Sprintf("error=%q,error_description=%q", uie.Code, uie.Description))
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(uie.Status)
			fmt.Fprint(w, uie.Code)
			return
		}

		slogx.FromContext(r.Context()).Error("userinfo failed", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error, try again later")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, claims)
}
