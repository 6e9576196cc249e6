package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/micrositio/authd/internal/auth/domain"
	"github.com/micrositio/authd/internal/auth/service"
	"github.com/micrositio/authd/pkg/httpx"
)

// RefreshTokenHeader carries a transparently rotated bearer token back to
// the client when the presented one is close to expiry.
const RefreshTokenHeader = "X-Refresh-Token"

type authUserKey struct{}

// RequireSession guards protected routes. It validates the bearer token,
// confirms the server-side session row, injects the authenticated user into
// the request context, and surfaces rotated tokens via RefreshTokenHeader.
func RequireSession(sessions *service.SessionService) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "Missing bearer token")
				return
			}

			result, err := sessions.Authenticate(r.Context(), token)
			if err != nil {
				writeServiceError(w, r, err)
				return
			}

			if result.RotatedToken != "" {
				w.Header().Set(RefreshTokenHeader, result.RotatedToken)
			}

			ctx := context.WithValue(r.Context(), authUserKey{}, result.User)
			ctx = context.WithValue(ctx, httpx.CtxKeyUserID, result.User.ID)
			ctx = context.WithValue(ctx, httpx.CtxKeyClaims, result.Claims)
			ctx = context.WithValue(ctx, httpx.CtxKeySession, result.Claims.SID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// authenticatedUser pulls the user injected by RequireSession.
func authenticatedUser(ctx context.Context) (domain.User, bool) {
	u, ok := ctx.Value(authUserKey{}).(domain.User)
	return u, ok
}

// bearerToken extracts the token from an "Authorization: Bearer x" header.
func bearerToken(r *http.Request) string {
	const prefix = "Bearer "
	h := r.Header.Get("Authorization")
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return strings.TrimSpace(h[len(prefix):])
	}
	return ""
}

// requestMeta captures the caller's network origin for audit trails and
// session rows.
func requestMeta(r *http.Request) domain.RequestMeta {
	return domain.RequestMeta{
		IPAddress: httpx.IPKeyExtractor(r),
		UserAgent: r.UserAgent(),
		At:        time.Now().UTC(),
	}
}
