package domain

import "time"

// Profile is the normalised identity an upstream provider reports after
// a successful code exchange.
type Profile struct {
	Provider string
	Subject  string // provider-scoped stable identifier
	Email    string
	Verified bool // provider attests ownership of Email
	Name     string
}

// HandshakeState is the per-login record stored while an authorization
// redirect is in flight, keyed by the opaque state parameter. It is
// consumed exactly once on callback.
type HandshakeState struct {
	CSRFToken    string    `json:"csrf_token"`
	PKCEVerifier string    `json:"pkce_verifier"`
	Provider     string    `json:"provider"`
	CreatedAt    time.Time `json:"created_at"`
}
