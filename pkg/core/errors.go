package core

import (
	"errors"
	"fmt"
)

// ErrInvalidRequest is the sentinel wrapped by every RequestError.
var ErrInvalidRequest = errors.New("invalid request")

// RequestError is a client error detected before any query runs.
type RequestError struct {
	Field  string // request path of the offending value, e.g. "conditions[1].keyword"
	Reason string
}

func (e *RequestError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid request: %s", e.Reason)
	}
	return fmt.Sprintf("invalid request: %s: %s", e.Field, e.Reason)
}

// Unwrap lets errors.Is match ErrInvalidRequest.
func (e *RequestError) Unwrap() error { return ErrInvalidRequest }

// NewRequestError builds a RequestError.
func NewRequestError(field, format string, args ...any) *RequestError {
	return &RequestError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
