package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy surfaced by the booking core. Details are attached by wrapping,
// callers match with errors.Is.
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidState    = errors.New("invalid state")
	ErrConflict        = errors.New("conflict")
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrTransient means storage kept aborting the transaction; the request may be retried.
	ErrTransient = errors.New("temporarily unavailable")
)

// Errorf wraps kind with a formatted detail message.
func Errorf(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}
