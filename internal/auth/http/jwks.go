package http

import (
	"net/http"

	"github.com/harborworks/gatehouse/pkg/httpx"
	"github.com/harborworks/gatehouse/pkg/jwtx"
)

// JWKSHandler exposes the public signing key so other services can
// verify tokens without holding signing secrets.
func JWKSHandler(signer jwtx.Signer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, jwtx.JWKS{
			Keys: []jwtx.JWK{signer.PublicJWK()},
		})
	}
}
