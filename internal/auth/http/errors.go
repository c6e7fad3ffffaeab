package http

import (
	"errors"
	"net/http"

	"github.com/harborworks/gatehouse/internal/auth/domain"
	"github.com/harborworks/gatehouse/internal/auth/service"
	"github.com/harborworks/gatehouse/pkg/httpx"
)

// writeServiceError maps service errors onto stable response codes with
// non-leaking messages. Anything unmapped becomes a 503 so internal
// detail never reaches the client.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidToken),
		errors.Is(err, service.ErrTokenExpired),
		errors.Is(err, service.ErrTokenRevoked),
		errors.Is(err, service.ErrNotRefreshKind),
		errors.Is(err, service.ErrSubjectMismatch),
		errors.Is(err, service.ErrEmailUnverified):
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")

	case errors.Is(err, domain.ErrInvalidUsername),
		errors.Is(err, domain.ErrInvalidEmail),
		errors.Is(err, domain.ErrWeakPassword),
		errors.Is(err, service.ErrUnknownProvider),
		errors.Is(err, service.ErrHandshakeNotFound):
		httpx.WriteError(w, http.StatusBadRequest, "bad_request")

	case errors.Is(err, service.ErrUserExists):
		httpx.WriteError(w, http.StatusConflict, "already_exists")

	default:
		httpx.WriteError(w, http.StatusServiceUnavailable, "service_unavailable")
	}
}
