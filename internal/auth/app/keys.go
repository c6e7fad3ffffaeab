package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/harborworks/gatehouse/pkg/jwtx"
)

// loadKeyMaterial accepts either inline PEM or a path to a PEM file, so
// deployments can mount keys as secrets or point at files on disk.
func loadKeyMaterial(value string) ([]byte, error) {
	if strings.Contains(value, "-----BEGIN") {
		return []byte(value), nil
	}
	data, err := os.ReadFile(value)
	if err != nil {
		return nil, fmt.Errorf("read key file %q: %w", value, err)
	}
	return data, nil
}

// InitAuthKeys builds the signer and verifier from configuration. Key
// misconfiguration is fatal: the process must not serve traffic without
// working token keys.
func InitAuthKeys(cfg Config) (jwtx.Signer, jwtx.Verifier, error) {
	if cfg.PrivateKey == "" {
		return nil, nil, fmt.Errorf("JWT_PRIVATE_KEY is required")
	}

	privPEM, err := loadKeyMaterial(cfg.PrivateKey)
	if err != nil {
		return nil, nil, err
	}

	signer, err := jwtx.NewSignerRS256(privPEM)
	if err != nil {
		return nil, nil, fmt.Errorf("parse signing key: %w", err)
	}

	if cfg.PublicKey == "" {
		return signer, jwtx.NewVerifierRS256(signer.Public()), nil
	}

	pubPEM, err := loadKeyMaterial(cfg.PublicKey)
	if err != nil {
		return nil, nil, err
	}
	verifier, err := jwtx.NewVerifierRS256FromPEM(pubPEM)
	if err != nil {
		return nil, nil, fmt.Errorf("parse verify key: %w", err)
	}

	return signer, verifier, nil
}
