package store

import (
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
)

var (
	// ErrNotFound is returned when a point lookup matches no row.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when an insert collides with a uniqueness
	// constraint, e.g. a freshly generated room code that already exists.
	ErrConflict = errors.New("already exists")
	// ErrStore wraps failures of the underlying store operation.
	ErrStore = errors.New("store error")
)

func wrapStoreErr(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrStore, err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
