package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/harborworks/gatehouse/pkg/jwtx"
	"github.com/harborworks/gatehouse/pkg/slogx"
)

// Revocations reports whether a raw token has been revoked. A nil
// Revocations in AuthnMiddleware skips the check, so signature and
// expiry are the only gates.
type Revocations interface {
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// AuthnMiddleware authenticates requests with a bearer access token.
// Refresh tokens are rejected even when their signature is valid.
func AuthnMiddleware(v jwtx.Verifier, rev Revocations) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			authz := r.Header.Get("Authorization")
			if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
				writeBearerError(w, "missing bearer token")
				return
			}
			raw := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer"))

			claims, err := v.Verify(raw)
			if err != nil {
				writeBearerError(w, "token verification failed")
				log.Warn("jwt verify failed", "err", err)
				return
			}

			if err := claims.RequireKind(jwtx.TokenTypeAccess); err != nil {
				writeBearerError(w, "token is not an access token")
				return
			}

			if rev != nil {
				revoked, err := rev.IsRevoked(ctx, raw)
				if err != nil {
					log.Error("revocation check failed", "err", err)
					WriteError(w, http.StatusServiceUnavailable, "service_unavailable")
					return
				}
				if revoked {
					writeBearerError(w, "token revoked")
					return
				}
			}

			ctx = contextWithAuth(ctx, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func contextWithAuth(ctx context.Context, c jwtx.Claims) context.Context {
	ctx = context.WithValue(ctx, CtxKeyUserID, c.Subject)
	ctx = context.WithValue(ctx, CtxKeyRoles, c.Roles)
	ctx = context.WithValue(ctx, CtxKeyPermissions, c.Permissions)
	ctx = context.WithValue(ctx, CtxKeyClaims, c)
	return ctx
}

// RFC 6750-compliant error response for bearer auth.
func writeBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	w.WriteHeader(http.StatusUnauthorized)
}
