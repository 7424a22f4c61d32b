package domain

import (
	"errors"
	"strings"
)

// ErrUnauthenticated means the caller has no usable bearer token, or upstream rejected it.
var ErrUnauthenticated = errors.New("unauthenticated")

// ValidationError is a client input problem that is never forwarded upstream.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// MissingFields builds the "Missing required fields: a, b" validation error.
func MissingFields(fields ...string) *ValidationError {
	return &ValidationError{Message: "Missing required fields: " + strings.Join(fields, ", ")}
}

// RejectedError is a 2xx upstream reply whose body reports failure.
type RejectedError struct {
	Status  int
	Message string
}

func (e *RejectedError) Error() string {
	return e.Message
}
