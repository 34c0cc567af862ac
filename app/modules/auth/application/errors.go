package authservice

import "github.com/Black-And-White-Club/ctf-platform/app/shared/apperr"

var (
	// ErrTokenMissing is returned when no bearer token was presented.
	ErrTokenMissing = apperr.New(apperr.ErrUnauthorized, "Token is missing!")

	// ErrTokenInvalid is returned for malformed, forged, or orphaned tokens.
	ErrTokenInvalid = apperr.New(apperr.ErrUnauthorized, "Token is invalid!")

	// ErrTokenExpired is returned when the token's exp has passed.
	ErrTokenExpired = apperr.New(apperr.ErrUnauthorized, "Token has expired!")

	// ErrInvalidCredentials is returned by Login for an unknown user or a bad password.
	ErrInvalidCredentials = apperr.New(apperr.ErrUnauthorized, "Invalid credentials!")

	// ErrAccountDisabled is returned by Login for deactivated accounts.
	ErrAccountDisabled = apperr.New(apperr.ErrForbidden, "Account is disabled!")

	// ErrRegistrationClosed is returned when self-registration is turned off.
	ErrRegistrationClosed = apperr.Forbidden("Registration is closed!")

	// ErrUsernameTaken and ErrEmailTaken report uniqueness conflicts.
	ErrUsernameTaken = apperr.Conflict("Username already exists!")
	ErrEmailTaken    = apperr.Conflict("Email already exists!")
)
