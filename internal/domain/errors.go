package domain

import (
	"errors"
	"fmt"
)

// Error codes. Handlers map these onto HTTP statuses; services never touch
// status codes directly.
const (
	EINVALID      = "invalid"      // input failed validation
	EUNAUTHORIZED = "unauthorized" // authentication required or credentials rejected
	EFORBIDDEN    = "forbidden"    // authenticated but not allowed
	ENOTFOUND     = "not_found"    // resource does not exist
	ECONFLICT     = "conflict"     // state conflict, e.g. duplicate email
	ERATELIMIT    = "rate_limit"   // too many requests
	EUNAVAILABLE  = "unavailable"  // upstream dependency unreachable
	EINTERNAL     = "internal"     // everything else
)

// Error carries a machine-readable code, the operation that failed, and a
// message safe to show to users.
type Error struct {
	Code    string
	Op      string // e.g. "UserService.Login"
	Message string
	Err     error // wrapped cause, if any
}

func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf builds an Error with a formatted message.
func Errorf(code, op, format string, args ...any) *Error {
	return &Error{Code: code, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code, operation, and user-facing message to an underlying
// error.
func Wrap(err error, code, op, message string) *Error {
	return &Error{Code: code, Op: op, Message: message, Err: err}
}

// ErrorCode extracts the code from err's chain. Errors that never went
// through this package count as internal.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

const internalMessage = "An internal error occurred. Please try again later."

// ErrorMessage extracts the user-facing message from err's chain. Internal
// errors always come back as the generic message; database and upstream
// details stay in the logs.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e.Code != EINTERNAL {
		return e.Message
	}
	return internalMessage
}

// ErrorOp extracts the failing operation from err's chain, if recorded.
func ErrorOp(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Op
	}
	return ""
}

// Constructors for the common cases. Internal and Unavailable take the
// underlying error because those are the two codes where a cause exists and
// matters for logging.

func Invalid(op, message string) *Error      { return &Error{Code: EINVALID, Op: op, Message: message} }
func Unauthorized(op, message string) *Error { return &Error{Code: EUNAUTHORIZED, Op: op, Message: message} }
func Forbidden(op, message string) *Error    { return &Error{Code: EFORBIDDEN, Op: op, Message: message} }
func NotFound(op, message string) *Error     { return &Error{Code: ENOTFOUND, Op: op, Message: message} }
func Conflict(op, message string) *Error     { return &Error{Code: ECONFLICT, Op: op, Message: message} }

func Internal(err error, op, message string) *Error {
	return &Error{Code: EINTERNAL, Op: op, Message: message, Err: err}
}

func Unavailable(err error, op, message string) *Error {
	return &Error{Code: EUNAVAILABLE, Op: op, Message: message, Err: err}
}

func RateLimit(op string) *Error {
	return &Error{Code: ERATELIMIT, Op: op, Message: "Too many requests. Please try again later."}
}

// ValidationError collects per-field validation messages so a form can show
// them next to the inputs.
type ValidationError struct {
	Op     string
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: validation failed", e.Op)
}

// NewValidationError starts a validation error with one field message.
func NewValidationError(op, field, message string) *ValidationError {
	return &ValidationError{Op: op, Fields: map[string]string{field: message}}
}

// AddFieldError appends a field message, creating the ValidationError if err
// is not one already.
func AddFieldError(err error, field, message string) *ValidationError {
	var ve *ValidationError
	if errors.As(err, &ve) {
		ve.Fields[field] = message
		return ve
	}
	return NewValidationError("", field, message)
}
