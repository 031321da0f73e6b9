package errors

import "errors"

var (
	ErrNotFound = errors.New("schedule rule not found")

	ErrExceptionNotFound = errors.New("schedule exception not found")

	ErrInvalidID = errors.New("invalid schedule ID format")
)
