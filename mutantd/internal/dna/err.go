package dna

import (
	"errors"
	"fmt"
)

// ErrInvalidInput matches every *InvalidInputError with errors.Is.
var ErrInvalidInput = errors.New("invalid dna")

// InvalidInputError rejects a grid before anything is indexed.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidInput, e.Reason)
}

func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

func invalidf(format string, a ...interface{}) error {
	return &InvalidInputError{Reason: fmt.Sprintf(format, a...)}
}
