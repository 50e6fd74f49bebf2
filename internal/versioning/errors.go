package versioning

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is matched by every InvalidInputError.
var ErrInvalidInput = errors.New("invalid input")

// InvalidInputError reports a required file name component that sanitised to nothing.
type InvalidInputError struct {
	Field string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("cannot generate file name: %s is empty", e.Field)
}

// Is lets errors.Is(err, ErrInvalidInput) match.
func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// ErrInvalidPayload reports a backend payload that does not match the expected shape.
var ErrInvalidPayload = errors.New("invalid payload")
