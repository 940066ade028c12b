package domain

import (
	"errors"
	"fmt"
)

// ErrUnauthenticated means an authenticated call was attempted with no stored
// token. No request is sent.
var ErrUnauthenticated = errors.New("authorization token not found")

// ValidationError reports missing or mismatched input detected before any
// network call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Invalid builds a ValidationError for field.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NetworkError is a transport-level failure: no connectivity, timeout, reset.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return "network error: " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ServerError means a response arrived but indicates failure.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return e.Message
}

// DecodeError means a response body was not JSON or did not match the
// expected shape, or a request body could not be encoded.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return "failed to parse response: " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// UserMessage returns the text a screen shows for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var (
		verr *ValidationError
		serr *ServerError
		nerr *NetworkError
		derr *DecodeError
	)
	switch {
	case errors.As(err, &verr):
		return verr.Message
	case errors.Is(err, ErrUnauthenticated):
		return "Authorization token not found"
	case errors.As(err, &serr):
		return serr.Message
	case errors.As(err, &nerr):
		return nerr.Error()
	case errors.As(err, &derr):
		return "Failed to parse response"
	default:
		return err.Error()
	}
}
