package http

import (
	"net/http"

	"github.com/harborworks/gatehouse/internal/auth/service"
	"github.com/harborworks/gatehouse/pkg/httpx"
	"github.com/harborworks/gatehouse/pkg/slogx"
)

// OAuthHandler serves the federated login endpoints.
type OAuthHandler struct {
	Federated *service.FederatedService
}

// HandleAuthorize serves GET /v1/auth/oauth/{provider}/authorize. It
// starts a handshake and redirects the user agent to the provider.
func (h *OAuthHandler) HandleAuthorize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	providerName := r.PathValue("provider")
	authURL, err := h.Federated.Begin(ctx, providerName)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.NoCache(w)
	http.Redirect(w, r, authURL, http.StatusFound)
}

// HandleCallback serves GET /v1/auth/oauth/callback, the redirect target
// registered with every provider.
func (h *OAuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	state := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")
	if state == "" || code == "" {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request")
		return
	}

	pair, err := h.Federated.Complete(ctx, state, code)
	if err != nil {
		log.Warn("federated callback failed", "err", err)
		writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, pair)
}
