// Package types provides shared type definitions used across the application.
package types

import (
	"fmt"
	"net/http"
)

// HTTPError is implemented by errors that map to HTTP status codes.
type HTTPError interface {
	error
	StatusCode() int
}

// NotFoundError indicates a function or schema does not exist.
type NotFoundError struct {
	Entity string
	Name   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s '%s' bestaat niet", e.Entity, e.Name)
}

func (e *NotFoundError) StatusCode() int { return http.StatusNotFound }

// ValidationError indicates input validation failed.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) StatusCode() int { return http.StatusBadRequest }

// ArgumentCountError indicates a function was called with the wrong number of arguments.
// It is raised by the calling-convention layer, never by a function body.
type ArgumentCountError struct {
	Function string
	Expected int
	Got      int
}

func (e *ArgumentCountError) Error() string {
	return fmt.Sprintf("functie %s() verwacht %d argument(en), %d ontvangen", e.Function, e.Expected, e.Got)
}

func (e *ArgumentCountError) StatusCode() int { return http.StatusBadRequest }

// DatabaseError wraps database operation errors.
type DatabaseError struct {
	Operation string
	Err       error
}

func (e *DatabaseError) Error() string {
	return fmt.Sprintf("database fout bij %s: %v", e.Operation, e.Err)
}

func (e *DatabaseError) Unwrap() error {
	return e.Err
}

func (e *DatabaseError) StatusCode() int { return http.StatusInternalServerError }

// ConfigurationError indicates invalid configuration.
type ConfigurationError struct {
	Field   string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuratie fout: %s - %s", e.Field, e.Message)
}

func (e *ConfigurationError) StatusCode() int { return http.StatusInternalServerError }

// OperationError indicates a multi-step operation (install, packaging) failed.
type OperationError struct {
	Operation string
	Err       error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s mislukt: %v", e.Operation, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

func (e *OperationError) StatusCode() int { return http.StatusInternalServerError }

// NewNotFoundError constructs a NotFoundError.
func NewNotFoundError(entity, name string) *NotFoundError {
	return &NotFoundError{Entity: entity, Name: name}
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NewOperationError creates a new OperationError.
func NewOperationError(operation string, err error) *OperationError {
	return &OperationError{Operation: operation, Err: err}
}
