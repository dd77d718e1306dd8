package store

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for store operations. Check with errors.Is.
var (
	// ErrNotFound indicates the requested record or session does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateContent indicates another record already holds the same
	// (content_hash, new_filename) pair. The caller decides whether to
	// rename or skip; the store only surfaces the collision.
	ErrDuplicateContent = errors.New("duplicate content collision")

	// ErrInvalidTransition indicates a status change the state machine does
	// not allow.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// wrapWriteError maps SQLite constraint failures onto sentinel errors.
// Other errors pass through unchanged. SQLite names the columns for plain
// unique indexes but only the index for partial ones, so both spellings
// are matched.
func wrapWriteError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") &&
		(strings.Contains(msg, "content_hash") || strings.Contains(msg, "idx_hash_filename")) {
		return fmt.Errorf("%w: %s", ErrDuplicateContent, msg)
	}
	return err
}

// isBusy reports whether an error is a transient SQLite lock that is worth
// retrying.
func isBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked") ||
		strings.Contains(msg, "SQLITE_BUSY")
}
