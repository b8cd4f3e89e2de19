package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeSchema     ErrorType = "SCHEMA"
	ErrTypeValidation ErrorType = "VALIDATION"
	ErrTypeType       ErrorType = "TYPE"
	ErrTypeKey        ErrorType = "KEY"
	ErrTypeParsing    ErrorType = "PARSING"
	ErrTypeStorage    ErrorType = "STORAGE"
	ErrTypeNotFound   ErrorType = "NOT_FOUND"
	ErrTypeConfig     ErrorType = "CONFIG"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewSchemaError reports a field that is absent from a table schema.
func NewSchemaError(field string) *AppError {
	return NewAppError(ErrTypeSchema, fmt.Sprintf("field %q not found in schema", field), nil).
		WithContext("field", field)
}

// NewAppValidationError creates a validation error for AppError type
func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewTypeError reports an argument or column of the wrong kind.
func NewTypeError(message string) *AppError {
	return NewAppError(ErrTypeType, message, nil)
}

// NewKeyError reports a row whose key has no entry in an entity index.
func NewKeyError(key string) *AppError {
	return NewAppError(ErrTypeKey, fmt.Sprintf("key %q not present in index", key), nil).
		WithContext("key", key)
}

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// TypeOf returns the ErrorType of the first AppError in err's chain, or "".
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// IsSchemaError reports whether err wraps a SCHEMA AppError.
func IsSchemaError(err error) bool { return TypeOf(err) == ErrTypeSchema }

// IsValidationError reports whether err wraps a VALIDATION AppError.
func IsValidationError(err error) bool { return TypeOf(err) == ErrTypeValidation }

// IsTypeError reports whether err wraps a TYPE AppError.
func IsTypeError(err error) bool { return TypeOf(err) == ErrTypeType }

// IsKeyError reports whether err wraps a KEY AppError.
func IsKeyError(err error) bool { return TypeOf(err) == ErrTypeKey }
