package transport

import (
	"errors"
	"fmt"
)

// Fixed messages for failures that do not originate from an HTTP response.
const (
	MessageRequestTimeout   = "request timeout"
	MessagePollingCancelled = "polling cancelled"
	MessagePollDeadline     = "polling deadline exceeded"
	MessageStreamCancelled  = "stream cancelled"
	MessageTaskFailed       = "Task failed"
)

// Error is the single failure type the SDK surfaces. It carries a
// human-readable message and, when the failure originated from a non-2xx
// HTTP response, the status code. A zero StatusCode means the failure was
// not an HTTP-status one (network, timeout, cancellation, validation).
type Error struct {
	Message    string
	StatusCode int

	cause error
}

// NewError creates an Error with a message and an optional status code
func NewError(message string, statusCode int) *Error {
	return &Error{Message: message, StatusCode: statusCode}
}

// WrapError creates an Error that carries an underlying cause for
// errors.Is/errors.As chains
func WrapError(message string, statusCode int, cause error) *Error {
	return &Error{Message: message, StatusCode: statusCode, cause: cause}
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (HTTP %d)", e.Message, e.StatusCode)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// AsError extracts a *Error from an error chain
func AsError(err error) (*Error, bool) {
	var te *Error
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}

// IsTimeout checks if an error is the Engine's timeout/cancellation failure
func IsTimeout(err error) bool {
	te, ok := AsError(err)
	return ok && te.Message == MessageRequestTimeout
}
