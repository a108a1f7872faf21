package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError is the unified error type for seqkit.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Evaluation is true when the error was raised while pulling elements.
	Evaluation bool `json:"evaluation"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// Is reports whether target is an *AppError with the same code, so the
// package sentinels match any error of their kind.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic evaluation-phase detection.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		Evaluation: IsEvaluationCode(code),
	}
}

// Sentinels for errors.Is matching.
var (
	ErrUnsupportedSource  = &AppError{Code: ErrCodeUnsupportedSource}
	ErrNotCallable        = &AppError{Code: ErrCodeNotCallable}
	ErrInvalidArgument    = &AppError{Code: ErrCodeInvalidArgument}
	ErrInfiniteCollection = &AppError{Code: ErrCodeInfiniteCollection}
	ErrUnhashableKey      = &AppError{Code: ErrCodeUnhashableKey}
	ErrMaterializeLimit   = &AppError{Code: ErrCodeMaterializeLimit}
	ErrInvalidConfig      = &AppError{Code: ErrCodeInvalidConfig}
)

// --- Common Error Constructors ---

// UnsupportedSource creates a new AppError for a value that exposes none of
// the supported pull capabilities.
func UnsupportedSource(source any) *AppError {
	return &AppError{
		Code:    ErrCodeUnsupportedSource,
		Message: fmt.Sprintf("%T is neither an iterable, an immediate cursor, nor a suspending iterator", source),
		Details: map[string]any{"type": fmt.Sprintf("%T", source)},
	}
}

// NotCallable creates a new AppError for an operation given a function value
// it cannot call.
func NotCallable(op string) *AppError {
	return &AppError{
		Code:    ErrCodeNotCallable,
		Message: fmt.Sprintf("%s requires a callable function argument", op),
		Details: map[string]any{"operation": op},
	}
}

// InvalidArgument creates a new AppError for a numeric argument outside its domain.
func InvalidArgument(op, arg string, value any) *AppError {
	return &AppError{
		Code:    ErrCodeInvalidArgument,
		Message: fmt.Sprintf("%s: invalid %s %v", op, arg, value),
		Details: map[string]any{"operation": op, "argument": arg, "value": value},
	}
}

// InfiniteCollection creates a new AppError for an operation that would
// have to materialize an infinitely repeating pipeline.
func InfiniteCollection(op string) *AppError {
	return &AppError{
		Code: ErrCodeInfiniteCollection,
		Message: fmt.Sprintf("%s was called on an infinitely repeating pipeline; "+
			"add Take or TakeWhile after Repeat before calling %s", op, op),
		Details: map[string]any{"operation": op},
	}
}

// UnhashableKey creates a new AppError for an element or key that cannot be
// used as a map key.
func UnhashableKey(op string, key any) *AppError {
	return &AppError{
		Code:       ErrCodeUnhashableKey,
		Message:    fmt.Sprintf("%s: value of type %T is not hashable", op, key),
		Evaluation: true,
		Details:    map[string]any{"operation": op, "type": fmt.Sprintf("%T", key)},
	}
}

// MaterializeLimit creates a new AppError for a buffering stage that grew
// past its limit.
func MaterializeLimit(op string, limit int) *AppError {
	return &AppError{
		Code:       ErrCodeMaterializeLimit,
		Message:    fmt.Sprintf("%s buffered more than %d elements", op, limit),
		Evaluation: true,
		Details:    map[string]any{"operation": op, "limit": limit},
	}
}

// InvalidConfig creates a new AppError for configuration that failed validation.
func InvalidConfig(message string) *AppError {
	return &AppError{
		Code:    ErrCodeInvalidConfig,
		Message: message,
	}
}

// Internal creates a new AppError for an unexpected failure.
func Internal(cause error) *AppError {
	return &AppError{
		Code:       ErrCodeInternal,
		Message:    "an unexpected error occurred",
		Evaluation: true,
		Cause:      cause,
	}
}

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Code returns the ErrorCode carried by err, or "" when err is not an AppError.
func Code(err error) ErrorCode {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code
	}
	return ""
}
