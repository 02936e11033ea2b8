package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrAlreadyExists  = errors.New("already exists")
	ErrNotSupported   = errors.New("not supported")
	ErrNoActiveToken  = errors.New("no active authentication token")
	ErrConfigNotFound = errors.New("currency config not found")
	ErrLockHeld       = errors.New("lock already held")
	ErrInvalidInput   = errors.New("invalid input")
)

// ClientError is a network failure or non-success response from an external
// gateway. Code carries the HTTP status or the API error code when known.
type ClientError struct {
	Source  string
	Code    string
	Message string
	Err     error
}

func (e *ClientError) Error() string {
	msg := e.Message
	if e.Err != nil {
		if msg != "" {
			msg += ": " + e.Err.Error()
		} else {
			msg = e.Err.Error()
		}
	}
	if e.Code != "" {
		return fmt.Sprintf("%s: client error (code=%s): %s", e.Source, e.Code, msg)
	}
	return fmt.Sprintf("%s: client error: %s", e.Source, msg)
}

func (e *ClientError) Unwrap() error { return e.Err }

// DataValidationError is returned when a response body does not satisfy the
// expected schema.
type DataValidationError struct {
	Source string
	Field  string
	Reason string
}

func (e *DataValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: invalid data: field %q %s", e.Source, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: invalid data: %s", e.Source, e.Reason)
}

// IsClientError reports whether err wraps a *ClientError.
func IsClientError(err error) bool {
	var ce *ClientError
	return errors.As(err, &ce)
}

// IsValidationError reports whether err wraps a *DataValidationError.
func IsValidationError(err error) bool {
	var ve *DataValidationError
	return errors.As(err, &ve)
}
