package core

import (
	"errors"
	"fmt"
)

// Error classes. Every error returned by the ledger wraps exactly one of
// these so callers can branch with errors.Is.
var (
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
	ErrStorage    = errors.New("storage failure")
)

var (
	ErrEmptyName         = fmt.Errorf("%w: empty name", ErrValidation)
	ErrEmptyCategory     = fmt.Errorf("%w: empty category", ErrValidation)
	ErrEmptyCategoryName = fmt.Errorf("%w: category name cannot be empty", ErrValidation)
	ErrInvalidAmount     = fmt.Errorf("%w: invalid amount", ErrValidation)
	ErrAmountOutOfRange  = fmt.Errorf("%w: amount out of range", ErrValidation)
	ErrInvalidDate       = fmt.Errorf("%w: invalid date", ErrValidation)
	ErrInvalidKind       = fmt.Errorf("%w: invalid transaction kind", ErrValidation)
	ErrInvalidMonth      = fmt.Errorf("%w: invalid month", ErrValidation)
	ErrCategoryExists    = fmt.Errorf("%w: category already exists", ErrConflict)
)

// StorageError wraps a failure of the durable medium with the operation that
// hit it.
func StorageError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}
