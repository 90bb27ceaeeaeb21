package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown        ErrorCode = "UNKNOWN"
	ErrInternal       ErrorCode = "INTERNAL"
	ErrInvalidInput   ErrorCode = "INVALID_INPUT"
	ErrNotFound       ErrorCode = "NOT_FOUND"
	ErrAlreadyExists  ErrorCode = "ALREADY_EXISTS"
	ErrPermission     ErrorCode = "PERMISSION"
	ErrNotImplemented ErrorCode = "NOT_IMPLEMENTED"
	ErrCancelled      ErrorCode = "CANCELLED"

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigParse ErrorCode = "CONFIG_PARSE"
	ErrConfigValid ErrorCode = "CONFIG_INVALID"

	// Installer package errors
	ErrCorruptArchive ErrorCode = "CORRUPT_ARCHIVE"
	ErrEntryNotFound  ErrorCode = "ENTRY_NOT_FOUND"

	// Game classification errors
	ErrUnsupportedAPI ErrorCode = "UNSUPPORTED_API"
	ErrDetect         ErrorCode = "DETECT"

	// Shader merge errors
	ErrUnsafeEntry  ErrorCode = "UNSAFE_ENTRY"
	ErrSourceAccess ErrorCode = "SOURCE_ACCESS"

	// Install errors
	ErrWriteFailure   ErrorCode = "WRITE_FAILURE"
	ErrLockContention ErrorCode = "LOCK_CONTENTION"
	ErrInvalidState   ErrorCode = "INVALID_STATE"

	// Record errors
	ErrRecordRead  ErrorCode = "RECORD_READ"
	ErrRecordWrite ErrorCode = "RECORD_WRITE"

	// Collaborator errors
	ErrFetch ErrorCode = "FETCH"
	ErrGit   ErrorCode = "GIT"
)

// ReshaderError represents a structured error with code and details
type ReshaderError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *ReshaderError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *ReshaderError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *ReshaderError) Is(target error) bool {
	var targetErr *ReshaderError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new ReshaderError with the given code and message
func New(code ErrorCode, message string) *ReshaderError {
	return &ReshaderError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new ReshaderError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *ReshaderError {
	return &ReshaderError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a ReshaderError
func Wrap(err error, code ErrorCode, message string) *ReshaderError {
	if err == nil {
		return nil
	}
	return &ReshaderError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *ReshaderError {
	if err == nil {
		return nil
	}
	return &ReshaderError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *ReshaderError) WithDetail(key string, value interface{}) *ReshaderError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithDetails adds multiple details to the error
func (e *ReshaderError) WithDetails(details map[string]interface{}) *ReshaderError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var rsErr *ReshaderError
	if errors.As(err, &rsErr) {
		return rsErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a ReshaderError
func GetErrorCode(err error) ErrorCode {
	var rsErr *ReshaderError
	if errors.As(err, &rsErr) {
		return rsErr.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns the details from an error, or nil if not a ReshaderError
func GetErrorDetails(err error) map[string]interface{} {
	var rsErr *ReshaderError
	if errors.As(err, &rsErr) {
		return rsErr.Details
	}
	return nil
}

// Fatal reports whether an install attempt that failed with err must not be
// retried automatically.
func Fatal(err error) bool {
	switch GetErrorCode(err) {
	case ErrUnsupportedAPI, ErrLockContention, ErrCancelled:
		return false
	}
	return err != nil
}
