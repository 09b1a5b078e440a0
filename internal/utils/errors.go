// Package utils provides logging, structured errors and input validation
// shared by the extractor packages.
package utils

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode represents predefined error codes for categorization
type ErrorCode string

const (
	ErrCodePageLoadFailed   ErrorCode = "PAGE_LOAD_FAILED"
	ErrCodeBrowserFailed    ErrorCode = "BROWSER_FAILED"
	ErrCodeExtractionFailed ErrorCode = "EXTRACTION_FAILED"
	ErrCodeOutputFailed     ErrorCode = "OUTPUT_FAILED"
	ErrCodeInvalidConfig    ErrorCode = "INVALID_CONFIG"
	ErrCodeValidation       ErrorCode = "VALIDATION_ERROR"
	ErrCodeInternal         ErrorCode = "INTERNAL_ERROR"
)

// StructuredError carries a code and context alongside the underlying cause.
type StructuredError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Context   map[string]interface{} `json:"context,omitempty"`
	Cause     error                  `json:"-"`
	Timestamp time.Time              `json:"timestamp"`
	Retryable bool                   `json:"retryable"`
}

// Error implements the error interface
func (e *StructuredError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error unwrapping
func (e *StructuredError) Unwrap() error {
	return e.Cause
}

// Is matches any StructuredError with the same code.
func (e *StructuredError) Is(target error) bool {
	if se, ok := target.(*StructuredError); ok {
		return e.Code == se.Code
	}
	return false
}

// ErrorBuilder provides a fluent interface for creating structured errors
type ErrorBuilder struct {
	error *StructuredError
}

// NewError creates a new error builder
func NewError(code ErrorCode, message string) *ErrorBuilder {
	return &ErrorBuilder{
		error: &StructuredError{
			Code:      code,
			Message:   message,
			Timestamp: time.Now(),
		},
	}
}

// WithCause sets the underlying cause
func (eb *ErrorBuilder) WithCause(cause error) *ErrorBuilder {
	eb.error.Cause = cause
	return eb
}

// WithContext adds contextual information
func (eb *ErrorBuilder) WithContext(key string, value interface{}) *ErrorBuilder {
	if eb.error.Context == nil {
		eb.error.Context = make(map[string]interface{})
	}
	eb.error.Context[key] = value
	return eb
}

// WithRetryable marks the error as retryable
func (eb *ErrorBuilder) WithRetryable(retryable bool) *ErrorBuilder {
	eb.error.Retryable = retryable
	return eb
}

// Build returns the constructed error
func (eb *ErrorBuilder) Build() *StructuredError {
	return eb.error
}

// WrapError wraps err with a code and message.
func WrapError(err error, code ErrorCode, message string) *StructuredError {
	return NewError(code, message).WithCause(err).Build()
}

// CodeOf returns the code of the first StructuredError in err's chain.
func CodeOf(err error) (ErrorCode, bool) {
	var se *StructuredError
	if errors.As(err, &se) {
		return se.Code, true
	}
	return "", false
}

// HasCode reports whether err's chain carries a StructuredError with code.
func HasCode(err error, code ErrorCode) bool {
	return errors.Is(err, &StructuredError{Code: code})
}

// IsRetryableError reports whether err was marked retryable.
func IsRetryableError(err error) bool {
	var se *StructuredError
	if errors.As(err, &se) {
		return se.Retryable
	}
	return false
}
