package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	ErrDateConflict = errors.New("booking dates conflict with existing booking")

	ErrInvalidDateRange = errors.New("check-out must be after check-in")

	ErrAlreadyCancelled = errors.New("booking is already cancelled")

	ErrInvalidTransition = errors.New("invalid status transition")
)
