package common

import (
	"errors"
	"net/http"
)

// Error codes shared by every handler.
const (
	CodeValidation = "VALIDATION"
	CodeMapping    = "MAPPING"
	CodeExternal   = "EXTERNAL"
	CodeInternal   = "INTERNAL"
)

// AppError represents an error with an attached code and HTTP status.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
	Details    any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap allows errors.Is/As to inspect the underlying error.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewAppError constructs an AppError.
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// ValidationError reports missing or malformed request fields.
func ValidationError(message string, details any) *AppError {
	return &AppError{Code: CodeValidation, Message: message, HTTPStatus: http.StatusBadRequest, Details: details}
}

// MappingError reports a data-integrity problem such as an unmapped catalog size.
func MappingError(message string, err error) *AppError {
	return &AppError{Code: CodeMapping, Message: message, HTTPStatus: http.StatusInternalServerError, Err: err}
}

// ExternalError wraps a failure returned by a downstream provider. Details
// carries the provider error body so callers see it verbatim.
func ExternalError(message string, err error, details any) *AppError {
	return &AppError{Code: CodeExternal, Message: message, HTTPStatus: http.StatusInternalServerError, Err: err, Details: details}
}

// IsAppError checks whether the error is an AppError.
func IsAppError(err error) bool {
	var target *AppError
	return errors.As(err, &target)
}
