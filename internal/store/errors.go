package store

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Repository-level error kinds. Callers match them with errors.Is; the
// wrapped driver error is kept for server-side logs only.
var (
	ErrNotFound      = errors.New("record not found")
	ErrAlreadyExists = errors.New("record already exists")
	ErrNotCreated    = errors.New("record not created")
	ErrNotUpdated    = errors.New("record not updated")
	ErrNotDeleted    = errors.New("record not deleted")
	ErrQueryFailed   = errors.New("query failed")

	// ErrConsumed is returned by atomic consume operations when the row was
	// already consumed by a concurrent request, or is no longer eligible.
	ErrConsumed = errors.New("record already consumed")
)

// mapError translates gorm and driver errors into the kinds above.
// fallback classifies anything that is neither "not found" nor a duplicate.
func mapError(err, fallback error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %w", ErrAlreadyExists, err)
	default:
		return fmt.Errorf("%w: %w", fallback, err)
	}
}
