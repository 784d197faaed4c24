// Package errors provides structured error handling for scanviz operations.
// It defines error codes, error types, and provides utilities for creating
// and handling errors with context and structured information.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents different types of errors that can occur.
type ErrorCode string

const (
	// General errors.
	CodeUnknown       ErrorCode = "UNKNOWN"
	CodeValidation    ErrorCode = "VALIDATION"
	CodeConfiguration ErrorCode = "CONFIGURATION"
	CodeCanceled      ErrorCode = "CANCELED"
	CodeNotFound      ErrorCode = "NOT_FOUND"
	CodeConflict      ErrorCode = "CONFLICT"
	CodeUnauthorized  ErrorCode = "UNAUTHORIZED"

	// Selection and playback errors.
	CodeUnknownScanType  ErrorCode = "UNKNOWN_SCAN_TYPE"
	CodeInvalidPortState ErrorCode = "INVALID_PORT_STATE"
	CodeInvalidSpeed     ErrorCode = "INVALID_SPEED"
	CodePlaybackActive   ErrorCode = "PLAYBACK_ACTIVE"
	CodeInvalidScenario  ErrorCode = "INVALID_SCENARIO"

	// Database errors.
	CodeDatabaseConnection ErrorCode = "DATABASE_CONNECTION"
	CodeDatabaseQuery      ErrorCode = "DATABASE_QUERY"
)

// PlaybackError represents an error raised by the catalog, player or controller.
type PlaybackError struct {
	Code     ErrorCode
	Message  string
	ScanType string
	Cause    error
	Context  map[string]interface{}
}

// Error implements the error interface.
func (e *PlaybackError) Error() string {
	if e.ScanType != "" {
		return fmt.Sprintf("[%s] %s (scan: %s)", e.Code, e.Message, e.ScanType)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *PlaybackError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error.
func (e *PlaybackError) WithContext(key string, value interface{}) *PlaybackError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewPlaybackError creates a new playback error with the specified code and message.
func NewPlaybackError(code ErrorCode, message string) *PlaybackError {
	return &PlaybackError{
		Code:    code,
		Message: message,
		Context: make(map[string]interface{}),
	}
}

// WrapPlaybackError wraps an existing error as a playback error.
func WrapPlaybackError(code ErrorCode, message string, err error) *PlaybackError {
	return &PlaybackError{
		Code:    code,
		Message: message,
		Cause:   err,
		Context: make(map[string]interface{}),
	}
}

// DatabaseError represents database-related errors.
type DatabaseError struct {
	Code      ErrorCode
	Message   string
	Operation string
	Cause     error
}

// Error implements the error interface.
func (e *DatabaseError) Error() string {
	if e.Operation != "" {
		return fmt.Sprintf("[%s] %s (operation: %s)", e.Code, e.Message, e.Operation)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *DatabaseError) Unwrap() error {
	return e.Cause
}

// NewDatabaseError creates a new database error.
func NewDatabaseError(code ErrorCode, message string) *DatabaseError {
	return &DatabaseError{
		Code:    code,
		Message: message,
	}
}

// WrapDatabaseError wraps an existing error as a database error.
func WrapDatabaseError(code ErrorCode, message, operation string, err error) *DatabaseError {
	return &DatabaseError{
		Code:      code,
		Message:   message,
		Operation: operation,
		Cause:     err,
	}
}

// ConfigError represents configuration-related errors.
type ConfigError struct {
	Code    ErrorCode
	Message string
	Field   string
	Value   interface{}
	Cause   error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("[%s] %s (field: %s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// NewConfigFieldError creates a configuration error for a specific field.
func NewConfigFieldError(code ErrorCode, message, field string, value interface{}) *ConfigError {
	return &ConfigError{
		Code:    code,
		Message: message,
		Field:   field,
		Value:   value,
	}
}

// WrapConfigError wraps an existing error as a configuration error.
func WrapConfigError(code ErrorCode, message string, err error) *ConfigError {
	return &ConfigError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Utility functions for common error operations

// GetCode extracts the error code from the first coded error in the chain.
func GetCode(err error) ErrorCode {
	var pe *PlaybackError
	if stderrors.As(err, &pe) {
		return pe.Code
	}
	var de *DatabaseError
	if stderrors.As(err, &de) {
		return de.Code
	}
	var ce *ConfigError
	if stderrors.As(err, &ce) {
		return ce.Code
	}
	return CodeUnknown
}

// IsCode checks if an error has a specific error code.
func IsCode(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}
	return GetCode(err) == code
}

// Common error creation functions

// ErrUnknownScanType reports a scan identifier absent from the catalog.
func ErrUnknownScanType(scanType string) *PlaybackError {
	e := NewPlaybackError(CodeUnknownScanType, "Unknown scan type")
	e.ScanType = scanType
	return e
}

// ErrInvalidPortState reports a port state other than open or closed.
func ErrInvalidPortState(state string) *PlaybackError {
	return NewPlaybackError(CodeInvalidPortState, "Invalid port state").WithContext("port_state", state)
}

// ErrInvalidSpeed reports a non-positive or non-numeric speed.
func ErrInvalidSpeed(raw interface{}) *PlaybackError {
	return NewPlaybackError(CodeInvalidSpeed, "Speed must be a positive number").WithContext("speed", raw)
}

// ErrPlaybackActive reports an action that is only valid while idle.
func ErrPlaybackActive(action string) *PlaybackError {
	return NewPlaybackError(CodePlaybackActive, "Action not allowed during playback").WithContext("action", action)
}

// ErrInvalidScenario reports a scenario that violates its structural invariants.
func ErrInvalidScenario(reason string) *PlaybackError {
	return NewPlaybackError(CodeInvalidScenario, reason)
}

// ErrNotFound reports a missing resource.
func ErrNotFound(what string) *PlaybackError {
	return NewPlaybackError(CodeNotFound, what+" not found")
}

// ErrDatabaseConnection creates an error for database connection failures.
func ErrDatabaseConnection(err error) *DatabaseError {
	return WrapDatabaseError(CodeDatabaseConnection, "Failed to connect to database", "connect", err)
}

// ErrConfigInvalid creates an error for invalid configuration.
func ErrConfigInvalid(field string, value interface{}) *ConfigError {
	return NewConfigFieldError(CodeValidation, "Invalid configuration value", field, value)
}
