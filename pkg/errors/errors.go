package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Common application errors
var (
	ErrNotFound           = NewNotFoundError("resource", "resource not found")
	ErrAlreadyExists      = NewAlreadyExistsError("resource", "resource already exists")
	ErrInvalidArgument    = NewValidationError("", "invalid argument")
	ErrInvalidCredentials = NewUnauthorizedError("Invalid Credentials")
)

// ValidationError represents a validation failure with field-level details
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return e.Message
}

// HTTPStatus returns the HTTP status code for this error
func (e *ValidationError) HTTPStatus() int {
	return http.StatusBadRequest
}

// NotFoundError represents a referenced entity that does not exist
type NotFoundError struct {
	Resource string
	Message  string
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(resource, message string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		Message:  message,
	}
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// HTTPStatus returns the HTTP status code for this error
func (e *NotFoundError) HTTPStatus() int {
	return http.StatusNotFound
}

// AlreadyExistsError represents a uniqueness rule violation
type AlreadyExistsError struct {
	Resource string
	Message  string
}

// NewAlreadyExistsError creates a new already exists error
func NewAlreadyExistsError(resource, message string) *AlreadyExistsError {
	return &AlreadyExistsError{
		Resource: resource,
		Message:  message,
	}
}

// Error implements the error interface
func (e *AlreadyExistsError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s already exists", e.Resource)
}

// HTTPStatus returns the HTTP status code for this error
func (e *AlreadyExistsError) HTTPStatus() int {
	return http.StatusConflict
}

// UnavailableError represents a business-rule rejection on exhausted inventory
type UnavailableError struct {
	Message string
}

// NewUnavailableError creates a new unavailable error
func NewUnavailableError(message string) *UnavailableError {
	return &UnavailableError{Message: message}
}

// Error implements the error interface
func (e *UnavailableError) Error() string {
	return e.Message
}

// HTTPStatus returns the HTTP status code for this error
func (e *UnavailableError) HTTPStatus() int {
	return http.StatusConflict
}

// UnauthorizedError represents a failed credential check
type UnauthorizedError struct {
	Message string
}

// NewUnauthorizedError creates a new unauthorized error
func NewUnauthorizedError(message string) *UnauthorizedError {
	return &UnauthorizedError{Message: message}
}

// Error implements the error interface
func (e *UnauthorizedError) Error() string {
	return e.Message
}

// HTTPStatus returns the HTTP status code for this error
func (e *UnauthorizedError) HTTPStatus() int {
	return http.StatusUnauthorized
}

// HTTPStatuser interface for errors that carry an HTTP status
type HTTPStatuser interface {
	HTTPStatus() int
}

// IsUserFacing reports whether err is a recovered, user-visible error whose
// message is safe to surface as a flash message.
func IsUserFacing(err error) bool {
	var s HTTPStatuser
	return errors.As(err, &s)
}

// HTTPStatus returns the status carried by err, or 500 for unknown errors.
func HTTPStatus(err error) int {
	var s HTTPStatuser
	if errors.As(err, &s) {
		return s.HTTPStatus()
	}
	return http.StatusInternalServerError
}
