package store

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Sentinel errors returned by the stores. Callers branch with errors.Is;
// anything else is an underlying storage failure and is propagated wrapped.
var (
	// ErrNotFound means the referenced catalog item or tally does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateName means a catalog create or rename would collide with
	// an existing item's name. Uniqueness spans active and inactive items.
	ErrDuplicateName = errors.New("a candy with this name already exists")

	// ErrConflict means re-pointing a tally would leave two tallies on the
	// same (catalog item, year) pair. Consolidating data is the job of
	// CatalogStore.Merge, never of an update.
	ErrConflict = errors.New("a tally for this candy already exists for this year")

	// ErrSameItem means a merge was requested with source == target.
	ErrSameItem = errors.New("cannot merge a catalog item with itself")
)

// isUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
