package errors

import "errors"

var (
	ErrNotFound = errors.New("visit not found")

	ErrInvalidID = errors.New("invalid visit ID format")

	// ErrSlotLocked means another booking attempt currently holds the
	// advisory lock for the same slot.
	ErrSlotLocked = errors.New("slot is locked by a concurrent booking")
)
