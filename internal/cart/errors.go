package cart

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation matches every *ValidationError via errors.Is.
	ErrValidation   = errors.New("validation failed")
	ErrItemNotFound = errors.New("item not in cart")
	ErrEmptyCart    = errors.New("cart is empty")
)

// ValidationError names the offending field and a message the user can act on.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// QuantityRangeError is returned when a quantity falls outside
// [MinQuantity, MaxQuantity].
func QuantityRangeError(got int) *ValidationError {
	return invalid("quantity", "must be between %d and %d, got %d", MinQuantity, MaxQuantity, got)
}

// PersistenceError wraps a failed durable-storage operation. The in-memory
// cart is left at its last persisted state whenever one is returned.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("cart storage %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
