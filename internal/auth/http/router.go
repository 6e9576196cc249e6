// Package http wires the authentication workflows onto the HTTP surface.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/micrositio/authd/internal/auth/service"
	"github.com/micrositio/authd/internal/auth/store"
	"github.com/micrositio/authd/pkg/httpx"
	"github.com/micrositio/authd/pkg/jwtx"
	"github.com/micrositio/authd/pkg/slogx"

	_ "github.com/micrositio/authd/api/auth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys         *jwtx.KeySet
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store           store.Store
	RegisterService *service.RegisterService
	LoginService    *service.LoginService
	MFAService      *service.MFAService
	PasswordService *service.PasswordService
	SessionService  *service.SessionService
}

func NewRouter(
	keys *jwtx.KeySet,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Micrositio Authentication API
//	@version		0.1.0
//	@description	Allowlist-gated registration, password login with lockout, and mandatory TOTP two-factor authentication.
//	@description
//	@description				Session tokens are EdDSA-signed JWTs backed by server-side session rows, rotated transparently near expiry.
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Session or challenge token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	register := &RegisterHandler{RegisterService: r.RegisterService}
	login := &LoginHandler{LoginService: r.LoginService}
	mfa := &MFAHandler{MFAService: r.MFAService}
	emailCode := &EmailCodeHandler{PasswordService: r.PasswordService}
	password := &PasswordHandler{PasswordService: r.PasswordService}
	session := &SessionHandler{Sessions: r.SessionService}

	// Registration - strict rate limit by IP (public account creation)
	r.Mux.Handle("POST /api/auth/register",
		httpx.Chain(register,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// Login - strict rate limit by IP (brute force prevention)
	r.Mux.Handle("POST /api/auth/login",
		httpx.Chain(login,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// 2FA setup - moderate rate limit by IP
	r.Mux.Handle("POST /api/auth/setup-2fa",
		httpx.Chain(http.HandlerFunc(mfa.HandleSetup),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// 2FA verify - strict rate limit by IP (prevent brute force of TOTP codes)
	r.Mux.Handle("POST /api/auth/verify-2fa",
		httpx.Chain(http.HandlerFunc(mfa.HandleVerify),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// Email-code flow - strict limits, both endpoints drive outbound mail
	// or accept guessable codes
	r.Mux.Handle("POST /api/auth/send-email-code",
		httpx.Chain(http.HandlerFunc(emailCode.HandleSend),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /api/auth/verify-email",
		httpx.Chain(http.HandlerFunc(emailCode.HandleVerify),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// Password reset flow - strict rate limit by IP
	r.Mux.Handle("POST /api/auth/forgot-password",
		httpx.Chain(http.HandlerFunc(password.HandleForgot),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /api/auth/reset-password",
		httpx.Chain(http.HandlerFunc(password.HandleReset),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// Session endpoints - lenient limits, cheap operations
	r.Mux.Handle("POST /api/auth/refresh",
		httpx.Chain(http.HandlerFunc(session.HandleRefresh),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("POST /api/auth/logout",
		httpx.Chain(http.HandlerFunc(session.HandleLogout),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	// GET /me - guarded; rotation rides on the guard
	r.Mux.Handle("GET /api/auth/me",
		httpx.Chain(http.HandlerFunc(session.HandleMe),
			RequireSession(r.SessionService),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.keys),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
