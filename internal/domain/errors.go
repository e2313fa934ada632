package domain

import (
	"errors"
	"fmt"
)

// Error types for domain-specific errors
type ErrorType string

const (
	ErrorTypeInvalidDocument   ErrorType = "invalid_document"
	ErrorTypeRateLimited       ErrorType = "rate_limited"
	ErrorTypeTimeout           ErrorType = "timeout"
	ErrorTypeModelUnavailable  ErrorType = "model_unavailable"
	ErrorTypeMalformedResponse ErrorType = "malformed_response"
	ErrorTypeValidation        ErrorType = "validation"
	ErrorTypeConversion        ErrorType = "conversion"
	ErrorTypeConfig            ErrorType = "config"
	ErrorTypeIO                ErrorType = "io"
)

// DomainError represents a domain-specific error with context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewError creates a new domain error
func NewError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

// Common error constructors
func InvalidDocumentError(message string, err error) *DomainError {
	return NewError(ErrorTypeInvalidDocument, message, err)
}

func RateLimitedError(message string, err error) *DomainError {
	return NewError(ErrorTypeRateLimited, message, err)
}

func TimeoutError(message string, err error) *DomainError {
	return NewError(ErrorTypeTimeout, message, err)
}

func ModelUnavailableError(message string, err error) *DomainError {
	return NewError(ErrorTypeModelUnavailable, message, err)
}

func MalformedResponseError(message string, err error) *DomainError {
	return NewError(ErrorTypeMalformedResponse, message, err)
}

func ValidationError(message string, err error) *DomainError {
	return NewError(ErrorTypeValidation, message, err)
}

func ConversionError(message string, err error) *DomainError {
	return NewError(ErrorTypeConversion, message, err)
}

func ConfigError(message string, err error) *DomainError {
	return NewError(ErrorTypeConfig, message, err)
}

func IOError(message string, err error) *DomainError {
	return NewError(ErrorTypeIO, message, err)
}

// TypeOf returns the ErrorType of err if it is (or wraps) a DomainError.
func TypeOf(err error) (ErrorType, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Type, true
	}
	return "", false
}

// IsRetryable reports whether err is a transient model-side failure worth
// retrying: rate limits, timeouts and provider unavailability. Malformed
// responses are parsing defects and are never retried.
func IsRetryable(err error) bool {
	t, ok := TypeOf(err)
	if !ok {
		return false
	}
	return t == ErrorTypeRateLimited || t == ErrorTypeTimeout || t == ErrorTypeModelUnavailable
}
