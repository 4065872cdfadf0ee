package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Sentinel errors shared by every service. Controllers map them to HTTP
// statuses with errors.Is; wrap with fmt.Errorf("%w: ...") to add detail.
var (
	// ErrValidation: malformed or missing input, rejected before any mutation.
	ErrValidation = errors.New("validation")
	// ErrNotFound: the id does not exist or no longer denotes an open record.
	ErrNotFound = errors.New("not_found")
	// ErrConflict: an overlap or uniqueness violation, a legitimate business
	// outcome rather than a fault.
	ErrConflict = errors.New("conflict")
)

// isDuplicateKeyErr detects unique-constraint violations across MySQL and
// SQLite without depending on driver error types.
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "UNIQUE constraint failed") ||
		errors.Is(err, gorm.ErrDuplicatedKey)
}

// lockForUpdate adds a FOR UPDATE row lock inside a transaction. SQLite has
// no FOR UPDATE syntax; its single-writer model already serializes the
// transactions these locks exist to order.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
