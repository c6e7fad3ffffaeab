package jwtx

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier validates a token string and returns its claims when the
// signature checks out and the token has not expired.
type Verifier interface {
	Verify(token string) (Claims, error)
}

// RS256Verifier validates tokens with an RSA public key. Services other than
// the issuer construct one from the distributed public key, so they never
// hold signing secrets.
type RS256Verifier struct {
	pub *rsa.PublicKey
}

// NewVerifierRS256 wraps an in-memory public key.
func NewVerifierRS256(pub *rsa.PublicKey) *RS256Verifier {
	return &RS256Verifier{pub: pub}
}

// NewVerifierRS256FromPEM parses a PEM-encoded RSA public key (PKIX
// "PUBLIC KEY" or PKCS1 "RSA PUBLIC KEY").
func NewVerifierRS256FromPEM(pemKey []byte) (*RS256Verifier, error) {
	block, _ := pem.Decode(pemKey)
	if block == nil {
		return nil, errors.New("jwtx: invalid PEM for RSA public key")
	}

	switch block.Type {
	case "PUBLIC KEY":
		parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("jwtx: parse PKIX: %w", err)
		}
		pub, ok := parsed.(*rsa.PublicKey)
		if !ok {
			return nil, errors.New("jwtx: not an RSA public key")
		}
		return &RS256Verifier{pub: pub}, nil
	case "RSA PUBLIC KEY":
		pub, err := x509.ParsePKCS1PublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("jwtx: parse PKCS1: %w", err)
		}
		return &RS256Verifier{pub: pub}, nil
	default:
		return nil, fmt.Errorf("jwtx: unsupported PEM type %q", block.Type)
	}
}

// Verify checks signature and expiry. It deliberately does not consult any
// revocation state: blacklist checks are I/O-bound and belong to the caller.
func (v *RS256Verifier) Verify(tokenStr string) (Claims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))

	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		return v.pub, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrExpired
		}
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Claims{}, ErrMalformed
	}

	return *claims, nil
}
