package userdb

import "errors"

// Sentinel errors for the user repository layer.
// These indicate infrastructure-level outcomes (presence/absence of rows, unique
// constraint hits), not domain validation failures. The service layer decides how
// to map these into domain errors or user-visible messages.
var (
	// ErrNotFound indicates the requested user row does not exist.
	ErrNotFound = errors.New("user record not found")

	// ErrNoRowsAffected indicates an UPDATE/DELETE affected zero rows.
	ErrNoRowsAffected = errors.New("no rows affected")

	// ErrDuplicate indicates a unique constraint on username or email was hit.
	ErrDuplicate = errors.New("username or email already exists")
)
