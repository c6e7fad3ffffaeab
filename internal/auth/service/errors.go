package service

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrInvalidToken       = errors.New("invalid_token")
	ErrTokenExpired       = errors.New("token_expired")
	ErrTokenRevoked       = errors.New("token_revoked")
	ErrNotRefreshKind     = errors.New("not_refresh_token")
	ErrSubjectMismatch    = errors.New("subject_mismatch")
	ErrEmailUnverified    = errors.New("email_unverified")
	ErrUserExists         = errors.New("user_already_exists")
	ErrUnknownProvider    = errors.New("unknown_provider")
	ErrHandshakeNotFound  = errors.New("handshake_not_found")
	ErrUnavailable        = errors.New("service_unavailable")
)
