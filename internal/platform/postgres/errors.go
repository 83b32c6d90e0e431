package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/toeicprep/engine/internal/store"
)

// PostgreSQL error codes
const uniqueViolationCode = "23505" // unique constraint violation

// isUniqueViolation checks if the given error is a PostgreSQL unique
// constraint violation, used to detect conflicting inserts such as a second
// in-progress exam session or a duplicate result row.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

// unavailable wraps a driver failure so callers can fail closed on
// store.ErrUnavailable without seeing driver internals.
func unavailable(operation string, err error) error {
	return fmt.Errorf("%w: %s: %v", store.ErrUnavailable, operation, err)
}
