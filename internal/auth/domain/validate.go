package domain

import (
	"errors"
	"regexp"
	"unicode"
)

var (
	ErrInvalidUsername = errors.New("invalid_username")
	ErrInvalidEmail    = errors.New("invalid_email")
	ErrWeakPassword    = errors.New("weak_password")
)

// Compiled once at startup and shared read-only.
var (
	usernameRe = regexp.MustCompile(`^[A-Za-z0-9_]{3,32}$`)
	emailRe    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// ValidateUsername enforces 3-32 characters from [A-Za-z0-9_].
func ValidateUsername(username string) error {
	if !usernameRe.MatchString(username) {
		return ErrInvalidUsername
	}
	return nil
}

// ValidateEmail enforces at most 254 characters in local@domain shape.
func ValidateEmail(email string) error {
	if len(email) > 254 || !emailRe.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}

// ValidatePassword enforces length 8-128 with at least one uppercase,
// one lowercase, one digit and one non-alphanumeric character.
func ValidatePassword(password string) error {
	runes := []rune(password)
	if len(runes) < 8 || len(runes) > 128 {
		return ErrWeakPassword
	}

	var upper, lower, digit, special bool
	for _, r := range runes {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			special = true
		}
	}

	if !upper || !lower || !digit || !special {
		return ErrWeakPassword
	}
	return nil
}
