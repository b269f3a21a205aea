package http

import (
	"net/http"
	"strings"

	"github.com/openauthlab/opd/pkg/httpx"
)

// ProviderMetadata is the openid-configuration document. It advertises
// only what the provider actually implements.
type ProviderMetadata struct {
	Issuer                           string   `json:"issuer"`
	AuthorizationEndpoint            string   `json:"authorization_endpoint"`
	TokenEndpoint                    string   `json:"token_endpoint"`
	UserInfoEndpoint                 string   `json:"userinfo_endpoint"`
	JWKSURI                          string   `json:"jwks_uri"`
	ScopesSupported                  []string `json:"scopes_supported"`
	ResponseTypesSupported           []string `json:"response_types_supported"`
	GrantTypesSupported              []string `json:"grant_types_supported"`
	SubjectTypesSupported            []string `json:"subject_types_supported"`
	IDTokenSigningAlgValuesSupported []string `json:"id_token_signing_alg_values_supported"`
	TokenEndpointAuthMethods         []string `json:"token_endpoint_auth_methods_supported"`
	ClaimsSupported                  []string `json:"claims_supported"`
}

// DiscoveryHandler serves GET /.well-known/openid-configuration.
//
//	@Summary		Provider Metadata
//	@Description	Returns the OpenID Connect discovery document.
//	@Tags			well-known
//	@Produce		json
//	@Success		200	{object}	ProviderMetadata
//	@Router			/.well-known/openid-configuration [get].
func DiscoveryHandler(issuer string, scopes []string) http.HandlerFunc {
	base := strings.TrimRight(issuer, "/")
	metadata := ProviderMetadata{
		Issuer:                           issuer,
		AuthorizationEndpoint:            base + "/op/authorize",
		TokenEndpoint:                    base + "/op/token",
		UserInfoEndpoint:                 base + "/op/userinfo",
		JWKSURI:                          base + "/op/jwks",
		ScopesSupported:                  scopes,
		ResponseTypesSupported:           []string{"code"},
		GrantTypesSupported:              []string{"authorization_code"},
		SubjectTypesSupported:            []string{"public"},
		IDTokenSigningAlgValuesSupported: []string{"RS256"},
		TokenEndpointAuthMethods:         []string{"client_secret_basic"},
		ClaimsSupported: []string{
			"sub", "name", "given_name", "family_name", "locale", "birthdate",
			"email", "email_verified", "phone_number", "phone_number_verified",
			"address", "auth_time", "nonce",
		},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, metadata)
	}
}
