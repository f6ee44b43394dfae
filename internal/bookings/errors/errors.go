package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	// ErrVersionConflict means the booking changed between read and write.
	ErrVersionConflict = errors.New("booking was modified concurrently")

	ErrOutboxEventNotFound = errors.New("outbox event not found")
)
