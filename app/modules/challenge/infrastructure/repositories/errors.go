package challengedb

import "errors"

// Sentinel errors for the challenge repository layer.
var (
	// ErrNotFound indicates the requested challenge or category does not exist.
	ErrNotFound = errors.New("challenge record not found")

	// ErrNoRowsAffected indicates an UPDATE/DELETE affected zero rows.
	ErrNoRowsAffected = errors.New("no rows affected")

	// ErrDuplicate indicates a category name collision.
	ErrDuplicate = errors.New("category name already exists")

	// ErrInUse indicates a category still referenced by challenges.
	ErrInUse = errors.New("category is referenced by challenges")
)
