package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
)

type validationError struct {
	msg string
}

func (e *validationError) Error() string { return e.msg }

func (e *validationError) Unwrap() error { return ErrValidation }

// Validation returns a client-facing error that matches ErrValidation
// without appending its text to the message.
func Validation(format string, args ...any) error {
	return &validationError{msg: fmt.Sprintf(format, args...)}
}
