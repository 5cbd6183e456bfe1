package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrActivityNotFound is returned when an activity cannot be located for the caller.
	ErrActivityNotFound = errors.New("activity not found")
	// ErrDestinationNotFound is returned when a destination does not exist or belongs to another user.
	ErrDestinationNotFound = errors.New("destination not found")
	// ErrInvalidOrder is returned when a reorder request is not a permutation of the destination's activities.
	ErrInvalidOrder = errors.New("invalid activity order")
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
