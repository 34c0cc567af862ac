// Package userdomain holds the account field rules shared by registration,
// profile edits, and admin user management.
package userdomain

import (
	"net/mail"
	"strings"

	"github.com/Black-And-White-Club/ctf-platform/app/shared/apperr"
)

const (
	MaxUsernameLength = 64
	MaxEmailLength    = 120
	MinPasswordLength = 6
)

// NormalizeUsername trims and checks a username.
func NormalizeUsername(username string) (string, error) {
	username = strings.TrimSpace(username)
	switch {
	case username == "":
		return "", apperr.Validation("username is required")
	case len(username) > MaxUsernameLength:
		return "", apperr.Validation("username must be at most %d characters", MaxUsernameLength)
	}
	return username, nil
}

// NormalizeEmail trims and checks an email address.
func NormalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	switch {
	case email == "":
		return "", apperr.Validation("email is required")
	case len(email) > MaxEmailLength:
		return "", apperr.Validation("email must be at most %d characters", MaxEmailLength)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", apperr.Validation("email is invalid")
	}
	return email, nil
}

// ValidatePassword checks a new password.
func ValidatePassword(password string) error {
	if password == "" {
		return apperr.Validation("password is required")
	}
	if len(password) < MinPasswordLength {
		return apperr.Validation("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}
