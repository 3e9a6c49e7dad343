package common

import (
	"errors"
	"fmt"
)

// ErrNotFound covers both "no such notification" and "not owned by the
// caller". The two are indistinguishable on purpose so the API never
// leaks whether another user's record exists.
var ErrNotFound = errors.New("notification not found")

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
