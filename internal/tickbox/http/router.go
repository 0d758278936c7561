package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/aussiebroadwan/tickbox/internal/tickbox/metrics"
	"github.com/aussiebroadwan/tickbox/internal/tickbox/service"
	"github.com/aussiebroadwan/tickbox/internal/tickbox/store"
	"github.com/aussiebroadwan/tickbox/pkg/httpx"
	"github.com/aussiebroadwan/tickbox/pkg/jwtx"
	"github.com/aussiebroadwan/tickbox/pkg/slogx"
	"github.com/aussiebroadwan/tickbox/pkg/tickboxsdk"

	_ "github.com/aussiebroadwan/tickbox/api/tickbox" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// DefaultRequestTimeout bounds every request when Router.RequestTimeout is
// unset.
const DefaultRequestTimeout = 15 * time.Second

// Pinger is a dependency that can report whether it is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux chi.Router

	keys         *jwtx.KeyManager
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	// Registry is checked by /readyz when the token registry lives outside
	// the database. Optional.
	Registry Pinger
	// Gatherer backs /metrics. Defaults to prometheus.DefaultGatherer.
	Gatherer       prometheus.Gatherer
	RequestTimeout time.Duration

	TokenService *service.TokenService
	UserService  *service.UserService
	TodoService  *service.TodoService
}

func NewRouter(
	keys *jwtx.KeyManager,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	return &Router{
		Mux:          chi.NewRouter(),
		keys:         keys,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}
}

// ApplyRoutes installs the global middleware and every route. Call it once,
// after the services are set.
func (r *Router) ApplyRoutes() {
	timeout := r.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	r.Mux.Use(
		slogx.HTTPMiddleware(r.logger),
		middleware.Recoverer,
		middleware.Timeout(timeout),
	)

	r.registerAuth()
	r.registerTodos()
	r.registerSystem()

	r.Mux.Get("/swagger/*", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router.
//
//	@title			Tickbox API
//	@version		0.1.0
//	@description	Multi-tenant todo service. Clients log in through an OAuth2 token endpoint (password and refresh_token grants) and manage their own todos with the issued bearer token.
//	@description
//	@description				Access tokens are JWTs that are only honoured while registered and unrevoked. Identity tokens can be verified with the JWKS endpoint.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/tickbox
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.Mux.ServeHTTP(w, req)
}

func (r *Router) authn() httpx.Middleware {
	return httpx.AuthnMiddleware(r.keys.Verifier(), r.TokenService)
}

func (r *Router) registerAuth() {
	// POST /api/Auth/login - strict rate limit by IP and username (brute force)
	r.Mux.Method(http.MethodPost, tickboxsdk.PathToken,
		httpx.Chain(&TokenHandler{TokenService: r.TokenService},
			httpx.RateLimitByIPAndFormField(httpx.StrictLimit, "username"),
		),
	)

	// POST /api/Auth/register - strict rate limit by IP (account creation)
	r.Mux.With(middleware.AllowContentType("application/json")).Method(http.MethodPost, tickboxsdk.PathRegister,
		httpx.Chain(&RegisterHandler{UserService: r.UserService},
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /api/Auth/revoke - moderate rate limit by IP
	r.Mux.Method(http.MethodPost, tickboxsdk.PathRevoke,
		httpx.Chain(&RevokeHandler{TokenService: r.TokenService},
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// POST /api/Auth/introspect - bearer auth, moderate rate limit by user
	r.Mux.Method(http.MethodPost, tickboxsdk.PathIntrospect,
		httpx.Chain(&IntrospectHandler{TokenService: r.TokenService},
			r.authn(),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	// GET /.well-known/jwks.json - lenient rate limit (public key discovery)
	r.Mux.Method(http.MethodGet, tickboxsdk.PathJWKS,
		httpx.Chain(JWKSHandler(r.keys.KeySet()),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerTodos() {
	h := &TodosHandler{TodoService: r.TodoService}
	jsonOnly := middleware.AllowContentType("application/json")

	r.Mux.Route(tickboxsdk.PathTodos, func(rt chi.Router) {
		rt.Use(r.authn(), httpx.RateLimitByUser(httpx.ModerateLimit))

		rt.Get("/", h.HandleList)
		rt.With(jsonOnly).Post("/", h.HandleCreate)

		// Mutations must pass the ownership guard first.
		rt.With(jsonOnly, TodoGuard(r.TodoService)).Put("/{id}", h.HandleUpdate)
		rt.With(TodoGuard(r.TodoService)).Delete("/{id}", h.HandleDelete)
	})
}

func (r *Router) registerSystem() {
	gatherer := r.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r.Mux.Get(tickboxsdk.PathLivez, LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Get(tickboxsdk.PathReadyz, ReadyzHandler(r.startTime, r.buildVersion, r.store, r.Registry, r.keys))
	r.Mux.Method(http.MethodGet, "/metrics", metrics.Handler(gatherer))
}
