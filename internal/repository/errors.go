package repository

import (
	"errors"
	"strings"
)

// Sentinel errors shared by the lead and message repositories
var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicateEntry = errors.New("duplicate entry")
	ErrInvalidInput   = errors.New("invalid input")
)

// isDuplicateKeyError reports whether err is a unique-constraint violation.
// The lead phone index is the only unique constraint in the schema. The
// string match covers PostgreSQL (SQLSTATE 23505) and the sqlite driver
// used in tests.
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "UNIQUE constraint") ||
		strings.Contains(msg, "23505")
}
