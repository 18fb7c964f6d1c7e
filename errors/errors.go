package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// Per-file errors, recovered by the batch runner
	ErrorTypeDecode            ErrorType = "decode"
	ErrorTypeEncode            ErrorType = "encode"
	ErrorTypeWriteVerification ErrorType = "write_verification"

	// Batch start preconditions
	ErrorTypeOutputDirectory ErrorType = "output_directory"
	ErrorTypeEmptyInput      ErrorType = "empty_input"

	// Settings and programmer errors
	ErrorTypeInvalid  ErrorType = "invalid"
	ErrorTypeInternal ErrorType = "internal"
	ErrorTypeUnknown  ErrorType = "unknown"
)

// Sentinels for errors.Is; matching compares the error type only.
var (
	ErrDecode            = &AppError{Type: ErrorTypeDecode}
	ErrEncode            = &AppError{Type: ErrorTypeEncode}
	ErrWriteVerification = &AppError{Type: ErrorTypeWriteVerification}
	ErrOutputDirectory   = &AppError{Type: ErrorTypeOutputDirectory}
	ErrEmptyInput        = &AppError{Type: ErrorTypeEmptyInput}
	ErrInvalid           = &AppError{Type: ErrorTypeInvalid}
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType      `json:"type"`
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
	InnerError error          `json:"-"`
	Stack      []string       `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Message != "" {
		if e.InnerError != nil {
			return e.Message + ": " + e.InnerError.Error()
		}
		return e.Message
	}
	if e.InnerError != nil {
		return e.InnerError.Error()
	}
	return string(e.Type)
}

// Unwrap returns the inner error
func (e *AppError) Unwrap() error {
	return e.InnerError
}

// Is checks if this error is of a specific type
func (e *AppError) Is(target error) bool {
	if targetApp, ok := target.(*AppError); ok {
		return e.Type == targetApp.Type
	}
	return false
}

// WithDetail adds a detail to the error
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithInnerError sets the inner error
func (e *AppError) WithInnerError(err error) *AppError {
	e.InnerError = err
	return e
}

// WithStack captures the call stack
func (e *AppError) WithStack() *AppError {
	e.Stack = captureStack(3)
	return e
}

// New creates a new AppError
func New(errType ErrorType, message string) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Code:    string(errType),
	}
}

// FromError converts a standard error to AppError
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	return &AppError{
		Type:       ErrorTypeUnknown,
		Code:       string(ErrorTypeUnknown),
		InnerError: err,
	}
}

// WrapWithType wraps an error with a specific type
func WrapWithType(err error, errType ErrorType, message string) *AppError {
	return &AppError{
		Type:       errType,
		Message:    message,
		InnerError: err,
		Code:       string(errType),
	}
}

// NewDecode reports a source file that could not be read or is not a recognized image.
func NewDecode(path string, err error) *AppError {
	return WrapWithType(err, ErrorTypeDecode, "cannot decode image").
		WithDetail("path", path).
		WithStack()
}

// NewEncode reports a codec that rejected the target format or its parameters.
func NewEncode(format string, err error) *AppError {
	return WrapWithType(err, ErrorTypeEncode, fmt.Sprintf("cannot encode %s", format)).
		WithDetail("format", format).
		WithStack()
}

// NewWriteVerification reports an output that is missing or empty after a successful encode.
func NewWriteVerification(path, reason string) *AppError {
	return New(ErrorTypeWriteVerification, fmt.Sprintf("output verification failed for %s: %s", path, reason)).
		WithDetail("path", path).
		WithStack()
}

// NewOutputDirectory reports an output directory that cannot be created or accessed.
func NewOutputDirectory(dir string, err error) *AppError {
	return WrapWithType(err, ErrorTypeOutputDirectory, fmt.Sprintf("cannot prepare output directory %s", dir)).
		WithDetail("dir", dir).
		WithStack()
}

// NewEmptyInput reports a batch started without any files.
func NewEmptyInput() *AppError {
	return New(ErrorTypeEmptyInput, "no input files").WithStack()
}

func NewInvalid(field string, value any, reason string) *AppError {
	return New(ErrorTypeInvalid, fmt.Sprintf("invalid value for %s: %v (%s)", field, value, reason)).
		WithDetail("field", field).
		WithDetail("value", value).
		WithDetail("reason", reason)
}

func NewInternal(message string) *AppError {
	return New(ErrorTypeInternal, message).WithStack()
}

// TypeOf returns the ErrorType of err, or ErrorTypeUnknown for foreign errors.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeUnknown
}

// StackText renders the stack captured on err, one frame per line.
// It returns an empty string when err carries no stack.
func StackText(err error) string {
	var appErr *AppError
	if !errors.As(err, &appErr) || len(appErr.Stack) == 0 {
		return ""
	}
	return strings.Join(appErr.Stack, "\n")
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// captureStack captures the call stack
func captureStack(skip int) []string {
	var stack []string
	for i := skip; i < 16; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}

		funcName := fn.Name()
		// Shorten function name
		if idx := strings.LastIndex(funcName, "/"); idx >= 0 {
			funcName = funcName[idx+1:]
		}

		stack = append(stack, fmt.Sprintf("%s:%d %s", file, line, funcName))
	}
	return stack
}
