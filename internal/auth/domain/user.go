package domain

import "time"

type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string // argon2 encoded
	Provider     string // "" for local accounts, otherwise "google" or "apple"
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Local reports whether the account was created with a password rather
// than through a federated identity provider.
func (u User) Local() bool {
	return u.Provider == ""
}
