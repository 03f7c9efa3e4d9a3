// Package errdef classifies errors that are reported back to the user.
package errdef

import (
	"errors"
	"fmt"
)

// NewValidation creates an error for malformed user input. Its message is
// shown to the user as is.
func NewValidation(format string, a ...any) error {
	return validation{fmt.Errorf(format, a...)}
}

type validation struct{ error }

func IsValidation(err error) bool {
	var e validation
	return errors.As(err, &e)
}

// NewNotFound creates an error representing a record that could not be found.
func NewNotFound(format string, a ...any) error {
	return notFound{fmt.Errorf(format, a...)}
}

type notFound struct{ error }

// IsNotFound returns true if err is an error representing a record that could not be found and false otherwise.
func IsNotFound(err error) bool {
	var e notFound
	return errors.As(err, &e)
}
