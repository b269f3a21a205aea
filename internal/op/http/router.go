package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/openauthlab/opd/internal/op/service"
	"github.com/openauthlab/opd/internal/op/session"
	"github.com/openauthlab/opd/internal/op/store"
	"github.com/openauthlab/opd/pkg/httpx"
	"github.com/openauthlab/opd/pkg/jwtx"
	"github.com/openauthlab/opd/pkg/slogx"

	_ "github.com/openauthlab/opd/api/op" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	signer       jwtx.Signer
	issuer       string
	scopes       []string
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store    store.Store
	sessions *session.Manager

	AuthorizeService *service.AuthorizeService
	LoginService     *service.LoginService
	TokenService     *service.TokenService
	UserInfoService  *service.UserInfoService
}

func NewRouter(
	signer jwtx.Signer,
	issuer string,
	scopes []string,
	buildVersion string,
	st store.Store,
	sessions *session.Manager,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		signer:       signer,
		issuer:       issuer,
		scopes:       scopes,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		sessions:     sessions,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerOP()
	r.registerIDP()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			OpenAuth Provider API
//	@version		0.1.0
//	@description	An OpenID Connect Provider implementing the OAuth2 Authorization Code flow:
//	@description	authorization, login, consent, code issuance, token exchange, and userinfo.
//	@description
//	@description	ID tokens are signed using RS256 (RSA-SHA256) and can be verified using the JWKS endpoint.
//
//	@contact.name				OpenAuth Lab
//	@contact.url				https://github.com/openauthlab/opd
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerOP() {
	authorizeHandler := &AuthorizeHandler{
		AuthorizeService: r.AuthorizeService,
		Sessions:         r.sessions,
	}

	// GET/POST /op/authorize - lenient rate limit (mostly just displays the login form)
	r.Mux.Handle("GET /op/authorize",
		httpx.Chain(authorizeHandler, httpx.RateLimitByIP(httpx.LenientLimit)))
	r.Mux.Handle("POST /op/authorize",
		httpx.Chain(authorizeHandler, httpx.RateLimitByIP(httpx.LenientLimit)))

	// POST /op/token - strict rate limit by IP (code redemption with client secrets)
	tokenHandler := &TokenHandler{TokenService: r.TokenService}
	r.Mux.Handle("POST /op/token",
		httpx.Chain(tokenHandler, httpx.RateLimitByIP(httpx.StrictLimit)))

	// GET/POST /op/userinfo - lenient rate limit by IP
	userinfoHandler := &UserInfoHandler{UserInfoService: r.UserInfoService}
	r.Mux.Handle("GET /op/userinfo",
		httpx.Chain(userinfoHandler, httpx.RateLimitByIP(httpx.LenientLimit)))
	r.Mux.Handle("POST /op/userinfo",
		httpx.Chain(userinfoHandler, httpx.RateLimitByIP(httpx.LenientLimit)))

	// Public read-only endpoints with high limits
	r.Mux.Handle("GET /op/jwks",
		httpx.Chain(JWKSHandler(r.signer), httpx.RateLimitByIP(httpx.PublicLimit)))
	r.Mux.Handle("GET /.well-known/openid-configuration",
		httpx.Chain(DiscoveryHandler(r.issuer, r.scopes), httpx.RateLimitByIP(httpx.PublicLimit)))
}

func (r *Router) registerIDP() {
	loginHandler := &LoginHandler{
		LoginService: r.LoginService,
		Sessions:     r.sessions,
	}

	// POST /idp/login - strict rate limit by IP + username to slow brute force
	r.Mux.Handle("POST /idp/login",
		httpx.Chain(http.HandlerFunc(loginHandler.HandleLogin),
			httpx.RateLimitByIPAndFormField(httpx.StrictLimit, "username")))

	r.Mux.Handle("POST /idp/consent",
		httpx.Chain(http.HandlerFunc(loginHandler.HandleConsent),
			httpx.RateLimitByIP(httpx.LenientLimit)))

	r.Mux.Handle("POST /idp/cancel",
		httpx.Chain(http.HandlerFunc(loginHandler.HandleCancel),
			httpx.RateLimitByIP(httpx.LenientLimit)))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store, r.signer))
}
