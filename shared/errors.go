package shared

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// ErrorCategory classifies the errors the core can return to callers.
// Business rejections (deadline, duplicate, sold out, funds) are NOT errors;
// they are structured results carrying an audit record. Only caller mistakes
// and draw-state violations surface here.
type ErrorCategory string

const (
	ErrorCategoryNotFound     ErrorCategory = "not_found"
	ErrorCategoryInvalidState ErrorCategory = "invalid_state"
	ErrorCategoryValidation   ErrorCategory = "validation"
)

// AppError is a standardized error with category and code context.
type AppError struct {
	Category  ErrorCategory `json:"category"`
	Code      string        `json:"code"`
	Message   string        `json:"message"`
	Operation string        `json:"operation"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
}

// NewNotFoundError reports a missing investor or offering. Never retried.
func NewNotFoundError(code, message, operation string) *AppError {
	return &AppError{
		Category:  ErrorCategoryNotFound,
		Code:      code,
		Message:   message,
		Operation: operation,
	}
}

// NewInvalidStateError reports a draw timing or re-execution violation.
// Fatal for that call; the operator may retry manually once preconditions hold.
func NewInvalidStateError(code, message, operation string) *AppError {
	return &AppError{
		Category:  ErrorCategoryInvalidState,
		Code:      code,
		Message:   message,
		Operation: operation,
	}
}

// NewValidationError reports malformed caller input.
func NewValidationError(code, message, operation string) *AppError {
	return &AppError{
		Category:  ErrorCategoryValidation,
		Code:      code,
		Message:   message,
		Operation: operation,
	}
}

// IsNotFound reports whether err is a not_found AppError.
func IsNotFound(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Category == ErrorCategoryNotFound
}

// IsInvalidState reports whether err is an invalid_state AppError.
func IsInvalidState(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Category == ErrorCategoryInvalidState
}

// IsValidation reports whether err is a validation AppError.
func IsValidation(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Category == ErrorCategoryValidation
}

// LogError logs the error with structured fields
func (e *AppError) LogError() {
	logrus.WithFields(logrus.Fields{
		"error_category": e.Category,
		"error_code":     e.Code,
		"error_message":  e.Message,
		"operation":      e.Operation,
	}).Error("Operation failed")
}
