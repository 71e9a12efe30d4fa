package errors

import (
	"errors"
	"fmt"
	"strings"
)

// StreamError is the unified error type carried by error signals.
type StreamError struct {
	// Code is a machine-readable error code.
	Code ErrorCode
	// Message is a human-readable error message.
	Message string
	// Cause is the underlying error that caused this error.
	Cause error
	// Suppressed holds secondary failures raised while this error was
	// being handled. They never replace the primary cause.
	Suppressed []error
}

// Error returns the string representation of the error.
func (e *StreamError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Cause != nil {
		fmt.Fprintf(&b, " (cause: %v)", e.Cause)
	}
	for _, s := range e.Suppressed {
		fmt.Fprintf(&b, " (suppressed: %v)", s)
	}
	return b.String()
}

// Unwrap returns the underlying cause of the error.
func (e *StreamError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause and returns the receiver.
func (e *StreamError) WithCause(cause error) *StreamError {
	e.Cause = cause
	return e
}

// Suppress attaches a secondary failure and returns the receiver.
func (e *StreamError) Suppress(err error) *StreamError {
	if err != nil {
		e.Suppressed = append(e.Suppressed, err)
	}
	return e
}

// New creates a new StreamError.
func New(code ErrorCode, message string) *StreamError {
	return &StreamError{Code: code, Message: message}
}

// --- Constructors for the signal taxonomy ---

// Overflow creates an error for a value emitted beyond outstanding demand.
func Overflow(message string) *StreamError {
	if message == "" {
		message = "could not emit value due to lack of requests"
	}
	return &StreamError{Code: ErrCodeOverflow, Message: message}
}

// NonPositiveRequest creates an error for a Request call with n <= 0.
func NonPositiveRequest(n int64) *StreamError {
	return &StreamError{
		Code:    ErrCodeNonPositiveRequest,
		Message: fmt.Sprintf("request amount must be positive (got %d)", n),
	}
}

// DuplicateSubscription creates an error for a second OnSubscribe call.
func DuplicateSubscription() *StreamError {
	return &StreamError{
		Code:    ErrCodeDuplicateSubscription,
		Message: "subscription already set, OnSubscribe may only be called once",
	}
}

// SingleSubscriberOnly creates the rejection error for a second
// subscriber on a unicast source.
func SingleSubscriberOnly() *StreamError {
	return &StreamError{
		Code:    ErrCodeSingleSubscriber,
		Message: "unicast sink allows only a single subscriber",
	}
}

// Operator wraps a failure from a user-supplied function.
func Operator(cause error) *StreamError {
	return &StreamError{
		Code:    ErrCodeOperator,
		Message: "operator callback failed",
		Cause:   cause,
	}
}

// Cleanup wraps a resource cleanup failure observed at the given stage
// ("complete", "error" or "cancel").
func Cleanup(stage string, cause error) *StreamError {
	return &StreamError{
		Code:    ErrCodeCleanup,
		Message: fmt.Sprintf("resource cleanup failed after %s", stage),
		Cause:   cause,
	}
}

// StrictResourceSupply creates the error raised when a resource
// supplier emits a second value in strict mode.
func StrictResourceSupply() *StreamError {
	return &StreamError{
		Code:    ErrCodeStrictResourceSupply,
		Message: "resource supplier emitted more than one value",
	}
}

// --- Inspection helpers ---

// IsOverflow reports whether err (or anything it wraps) is an overflow
// error, distinguishable from other illegal-state conditions.
func IsOverflow(err error) bool {
	var se *StreamError
	return errors.As(err, &se) && se.Code == ErrCodeOverflow
}

// CodeOf returns the ErrorCode of err if it carries one, or "".
func CodeOf(err error) ErrorCode {
	var se *StreamError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// AddSuppressed attaches secondary to primary. When primary is not a
// StreamError it is wrapped first, so the secondary cause is never lost.
func AddSuppressed(primary, secondary error) error {
	if secondary == nil {
		return primary
	}
	if primary == nil {
		return secondary
	}
	var se *StreamError
	if errors.As(primary, &se) {
		se.Suppress(secondary)
		return primary
	}
	return &StreamError{
		Code:       ErrCodeOperator,
		Message:    primary.Error(),
		Cause:      primary,
		Suppressed: []error{secondary},
	}
}

// SuppressedOf returns the suppressed causes attached to err, if any.
func SuppressedOf(err error) []error {
	var se *StreamError
	if errors.As(err, &se) {
		return se.Suppressed
	}
	return nil
}
