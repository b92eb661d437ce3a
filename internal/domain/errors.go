package domain

import (
	"context"
	"errors"
	"fmt"
)

// Error codes. The HTTP layer maps each to one status.
const (
	EINVALID      = "invalid"
	EUNAUTHORIZED = "unauthorized"
	EFORBIDDEN    = "forbidden"
	ENOTFOUND     = "not_found"
	ECONFLICT     = "conflict"
	ERATELIMIT    = "rate_limit"
	EUNAVAILABLE  = "unavailable" // canceled, timed out or upstream down
	EINTERNAL     = "internal"
)

// Client messages for codes whose details must not leak.
const (
	msgInternal    = "Wystąpił błąd serwera. Spróbuj ponownie później."
	msgRateLimited = "Zbyt wiele żądań. Spróbuj ponownie za chwilę."
	msgAborted     = "Żądanie zostało przerwane."
)

// Error is an application error. Message is safe to show to a visitor;
// Err is the cause and is only logged.
type Error struct {
	Code    string
	Op      string // e.g. "lead.submit"
	Message string
	Err     error
}

// Error returns the operation and message. The cause is left out.
func (e *Error) Error() string {
	if e.Op == "" {
		return e.Message
	}
	return e.Op + ": " + e.Message
}

// Unwrap returns the underlying cause for errors.Is and errors.As.
func (e *Error) Unwrap() error { return e.Err }

// Errorf creates an Error with a formatted message and no cause.
func Errorf(code, op, format string, args ...any) *Error {
	return &Error{Code: code, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error around a cause.
func Wrap(err error, code, op, message string) *Error {
	return &Error{Code: code, Op: op, Message: message, Err: err}
}

// NotFound reports a missing resource by kind and id.
func NotFound(op, resource, id string) *Error {
	return Errorf(ENOTFOUND, op, "%s with ID %q not found", resource, id)
}

// Invalid reports input the operation cannot accept.
func Invalid(op, message string) *Error {
	return &Error{Code: EINVALID, Op: op, Message: message}
}

// Conflict reports a state clash, such as a concurrent session update.
func Conflict(op, message string) *Error {
	return &Error{Code: ECONFLICT, Op: op, Message: message}
}

// RateLimit carries the fixed visitor message for throttled requests.
func RateLimit(op string) *Error {
	return &Error{Code: ERATELIMIT, Op: op, Message: msgRateLimited}
}

// Internal hides err behind the generic server message; message is for
// the logs.
func Internal(err error, op, message string) *Error {
	return Wrap(err, EINTERNAL, op, message)
}

// Unavailable reports a request that could not finish, such as a canceled
// one or an upstream outage.
func Unavailable(err error, op string) *Error {
	return Wrap(err, EUNAVAILABLE, op, msgAborted)
}

// FromContext is Unavailable for canceled or expired contexts and
// Internal for everything else.
func FromContext(err error, op, message string) *Error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Unavailable(err, op)
	}
	return Internal(err, op, message)
}

// ErrorCode returns the code of the outermost *Error in the chain. A bare
// ValidationError is EINVALID, anything else EINTERNAL.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	if e, ok := asError(err); ok {
		return e.Code
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return EINVALID
	}
	return EINTERNAL
}

// ErrorMessage returns what a visitor may see.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	if e, ok := asError(err); ok && e.Code != EINTERNAL {
		return e.Message
	}
	return msgInternal
}

// ErrorOp returns the operation of the outermost *Error in the chain.
func ErrorOp(err error) string {
	if e, ok := asError(err); ok {
		return e.Op
	}
	return ""
}

func asError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// ValidationError carries one message per invalid field.
type ValidationError struct {
	Op     string
	Fields map[string]string
}

// Error returns a summary; the field messages are in Fields.
func (e *ValidationError) Error() string {
	return e.Op + ": validation failed"
}

// NewValidationError creates a ValidationError for one field.
func NewValidationError(op, field, message string) *ValidationError {
	return &ValidationError{Op: op, Fields: map[string]string{field: message}}
}
