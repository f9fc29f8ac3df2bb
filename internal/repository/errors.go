package repository

import (
	"errors"

	"github.com/lib/pq"
)

// Sentinel errors surfaced when a store-level uniqueness rule blocks a write.
// Services translate these into typed conflict responses.
var (
	ErrDuplicateKey       = errors.New("duplicate key")
	ErrOutstandingRequest = errors.New("outstanding request exists")
)

// isUniqueViolation reports whether err is a Postgres unique-index violation.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// isForeignKeyViolation reports whether err is a Postgres foreign-key violation.
func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23503"
}
