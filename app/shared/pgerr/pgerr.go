// Package pgerr classifies Postgres errors coming from either driver the
// service runs on (bun's pgdriver in production, pgx stdlib in tests).
package pgerr

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun/driver/pgdriver"
)

// SQLSTATE codes the services react to.
const (
	UniqueViolation      = "23505"
	ForeignKeyViolation  = "23503"
	SerializationFailure = "40001"
	DeadlockDetected     = "40P01"
	LockNotAvailable     = "55P03"
	QueryCanceled        = "57014"
)

// Code returns the SQLSTATE of err, or "" when err is not a Postgres error.
func Code(err error) string {
	var pdErr pgdriver.Error
	if errors.As(err, &pdErr) {
		return pdErr.Field('C')
	}
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return pgxErr.Code
	}
	return ""
}

// IsUniqueViolation reports a unique constraint hit.
func IsUniqueViolation(err error) bool {
	return Code(err) == UniqueViolation
}

// IsForeignKeyViolation reports a foreign key constraint hit.
func IsForeignKeyViolation(err error) bool {
	return Code(err) == ForeignKeyViolation
}

// IsTransient reports lock timeouts and serialization failures, which a
// client may retry.
func IsTransient(err error) bool {
	switch Code(err) {
	case SerializationFailure, DeadlockDetected, LockNotAvailable:
		return true
	}
	return false
}
