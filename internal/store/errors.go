package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the
	// store. This is a generic version of the entity-specific not found
	// errors (e.g., ErrSessionNotFound).
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate
	// of a unique entity (e.g., a second in-progress exam session).
	ErrDuplicate = errors.New("entity already exists")

	// ErrUnavailable is returned when the underlying database cannot be
	// reached or a statement fails for infrastructure reasons. Callers that
	// gate access on store reads must treat this as a deny.
	ErrUnavailable = errors.New("store unavailable")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored. Check the wrapped error for specific validation details.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrTransactionFailed is returned when a database transaction fails
	// to commit or when an operation within a transaction fails.
	ErrTransactionFailed = errors.New("transaction failed")

	// Entity-specific "not found" errors

	// ErrSubscriptionNotFound indicates the user has no subscription row.
	ErrSubscriptionNotFound = fmt.Errorf("%w: subscription", ErrNotFound)

	// ErrUsageCounterNotFound indicates no counter row exists for the period.
	ErrUsageCounterNotFound = fmt.Errorf("%w: usage counter", ErrNotFound)

	// ErrProgressNotFound indicates the item has never been reviewed.
	ErrProgressNotFound = fmt.Errorf("%w: vocabulary progress", ErrNotFound)

	// ErrSessionNotFound indicates that the requested exam session does not exist.
	ErrSessionNotFound = fmt.Errorf("%w: exam session", ErrNotFound)

	// ErrSlotNotFound indicates that the requested question slot does not exist.
	ErrSlotNotFound = fmt.Errorf("%w: exam slot", ErrNotFound)

	// ErrResultNotFound indicates that no result row exists for the session.
	ErrResultNotFound = fmt.Errorf("%w: exam result", ErrNotFound)

	// Entity-specific "duplicate" errors

	// ErrActiveSessionExists indicates the user already has an in-progress
	// exam session. Backed by a partial unique index, so it also surfaces
	// when two Start calls race past the pre-check.
	ErrActiveSessionExists = fmt.Errorf("%w: in-progress exam session", ErrDuplicate)

	// ErrResultExists indicates a result row was already written for the session.
	ErrResultExists = fmt.Errorf("%w: exam result", ErrDuplicate)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError checks if the error is any kind of "duplicate" error.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

// StoreError is a custom error type for store-specific errors with additional context.
type StoreError struct {
	Entity    string // The entity type (e.g., "usage_counter", "exam_session")
	Operation string // The operation that failed (e.g., "create", "increment")
	Message   string // Error message
	Err       error  // Original error
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf(
			"%s operation on %s failed: %s: %v",
			e.Operation,
			e.Entity,
			e.Message,
			e.Err,
		)
	}
	return fmt.Sprintf("%s operation on %s failed: %s", e.Operation, e.Entity, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError with the given entity, operation, message, and wrapped error.
func NewStoreError(entity, operation, message string, err error) *StoreError {
	return &StoreError{
		Entity:    entity,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
