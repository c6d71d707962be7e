package model

import (
	"errors"
	"fmt"
)

// NotLoadedError is returned when reading an edge that was not eager-loaded.
type NotLoadedError struct {
	edge string
}

func (e *NotLoadedError) Error() string {
	return fmt.Sprintf("model: edge %q was not loaded", e.edge)
}

// IsNotLoaded reports whether err is a NotLoadedError.
func IsNotLoaded(err error) bool {
	var e *NotLoadedError
	return errors.As(err, &e)
}

// InputError reports a client-supplied value that cannot be used.
type InputError struct {
	Field string
	Err   error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid value for %q: %v", e.Field, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

// IsInputError reports whether err is an InputError.
func IsInputError(err error) bool {
	var e *InputError
	return errors.As(err, &e)
}
