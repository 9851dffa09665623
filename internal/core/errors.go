package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is matched (via errors.Is) by every NotFoundError.
var ErrNotFound = errors.New("not found")

// ErrDuplicateKey is matched (via errors.Is) by every DuplicateKeyError.
var ErrDuplicateKey = errors.New("duplicate key")

// NotFoundError reports a missing, inactive, or foreign-account record.
// Ref is the caller-facing identifier (a product name when one was supplied, otherwise an id).
type NotFoundError struct {
	Entity string
	Ref    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.Ref)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// InsufficientStockError reports a request for more units than a product holds.
type InsufficientStockError struct {
	ProductID   int
	ProductName string
	Available   int
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s. available: %d", e.ProductName, e.Available)
}

// ValidationError lists every field problem found in a request. Nothing has touched
// storage when one is returned.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, ", ")
}

// DuplicateKeyError reports a uniqueness conflict on a user-visible field.
type DuplicateKeyError struct {
	Field string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("%s already exists", e.Field)
}

func (e *DuplicateKeyError) Unwrap() error { return ErrDuplicateKey }

// Postgres SQLSTATE code the services translate.
const pgUniqueViolation = "23505"

// uniqueViolation returns the violated constraint name when err is a unique violation.
func uniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return pgErr.ConstraintName, true
	}
	return "", false
}
