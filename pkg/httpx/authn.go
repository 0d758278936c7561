package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/tickbox/pkg/jwtx"
	"github.com/aussiebroadwan/tickbox/pkg/slogx"
)

// Introspector decides whether a cryptographically valid token is still
// honoured, e.g. because it has not been revoked.
type Introspector interface {
	IsActive(ctx context.Context, claims jwtx.Claims) (bool, error)
}

// AuthnMiddleware requires a valid bearer access token. When in is non-nil
// the token must also be reported active by it.
func AuthnMiddleware(v jwtx.Verifier, in Introspector) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			raw, ok := BearerToken(r)
			if !ok {
				writeBearerError(w, "missing bearer token")
				return
			}

			claims, err := v.Verify(raw)
			if err != nil {
				log.Warn("access token rejected", slog.Any("err", err))
				writeBearerError(w, "token verification failed")
				return
			}

			if in != nil {
				active, err := in.IsActive(ctx, claims)
				if err != nil {
					log.Error("token introspection failed", slog.Any("err", err))
					writeBearerError(w, "token verification failed")
					return
				}
				if !active {
					writeBearerError(w, "token is no longer active")
					return
				}
			}

			ctx = slogx.Annotate(ctx, slog.String("user_id", claims.Subject))
			next.ServeHTTP(w, r.WithContext(WithClaims(ctx, claims)))
		})
	}
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RFC 6750 error response for bearer auth.
func writeBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	WriteJSON(w, http.StatusUnauthorized, map[string]string{
		"error":             "invalid_token",
		"error_description": desc,
	})
}
