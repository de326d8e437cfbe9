package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeNotFound indicates a resource was not found
	ErrorTypeNotFound ErrorType = "NOT_FOUND"
	// ErrorTypeInvalid indicates malformed or rejected input
	ErrorTypeInvalid ErrorType = "INVALID"
	// ErrorTypeConflict indicates a conflict (duplicate or stale write)
	ErrorTypeConflict ErrorType = "CONFLICT"
	// ErrorTypeUnauthorized indicates the caller is not authenticated
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	// ErrorTypeForbidden indicates the caller is not allowed to perform the operation
	ErrorTypeForbidden ErrorType = "FORBIDDEN"
	// ErrorTypeIllegalTransition indicates a lifecycle verb with no edge from the current state
	ErrorTypeIllegalTransition ErrorType = "ILLEGAL_TRANSITION"
	// ErrorTypeMissingPrerequisite indicates a transition precondition is not satisfied
	ErrorTypeMissingPrerequisite ErrorType = "MISSING_PREREQUISITE"
	// ErrorTypeInternal indicates an internal error
	ErrorTypeInternal ErrorType = "INTERNAL"
)

// AppError represents an application error. Reason carries a stable,
// enumerable code (e.g. "not-owner", "already-enrolled") so boundaries can
// map the denial to a user-facing message without re-deriving the rule.
type AppError struct {
	Type    ErrorType
	Message string
	Reason  string
	Err     error
}

// Error returns the error message
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new application error
func New(errorType ErrorType, message string) error {
	return &AppError{
		Type:    errorType,
		Message: message,
	}
}

// Wrap wraps an error with an application error
func Wrap(errorType ErrorType, message string, err error) error {
	return &AppError{
		Type:    errorType,
		Message: message,
		Err:     err,
	}
}

// NotFound creates a not found error
func NotFound(message string) error {
	return New(ErrorTypeNotFound, message)
}

// Invalid creates an invalid-input error
func Invalid(message string) error {
	return New(ErrorTypeInvalid, message)
}

// Conflict creates a conflict error
func Conflict(reason, message string) error {
	return &AppError{
		Type:    ErrorTypeConflict,
		Message: message,
		Reason:  reason,
	}
}

// Unauthorized creates an unauthorized error
func Unauthorized(message string) error {
	return New(ErrorTypeUnauthorized, message)
}

// Forbidden creates a forbidden error carrying a stable reason code
func Forbidden(reason, message string) error {
	return &AppError{
		Type:    ErrorTypeForbidden,
		Message: message,
		Reason:  reason,
	}
}

// IllegalTransition creates an error for a lifecycle verb attempted from a
// state with no outgoing edge for it
func IllegalTransition(verb, state string) error {
	return &AppError{
		Type:    ErrorTypeIllegalTransition,
		Message: fmt.Sprintf("cannot %s a course in state %q", verb, state),
		Reason:  "illegal-transition",
	}
}

// MissingPrerequisite creates an error for a submit-time validation failure,
// naming the prerequisite that is missing
func MissingPrerequisite(which, detail string) error {
	return &AppError{
		Type:    ErrorTypeMissingPrerequisite,
		Message: detail,
		Reason:  which,
	}
}

// Internal creates an internal error
func Internal(message string) error {
	return New(ErrorTypeInternal, message)
}

func isType(err error, t ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == t
	}
	return false
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return isType(err, ErrorTypeNotFound)
}

// IsInvalid checks if an error is an invalid-input error
func IsInvalid(err error) bool {
	return isType(err, ErrorTypeInvalid)
}

// IsConflict checks if an error is a conflict error
func IsConflict(err error) bool {
	return isType(err, ErrorTypeConflict)
}

// IsUnauthorized checks if an error is an unauthorized error
func IsUnauthorized(err error) bool {
	return isType(err, ErrorTypeUnauthorized)
}

// IsForbidden checks if an error is a forbidden error
func IsForbidden(err error) bool {
	return isType(err, ErrorTypeForbidden)
}

// IsIllegalTransition checks if an error is an illegal transition error
func IsIllegalTransition(err error) bool {
	return isType(err, ErrorTypeIllegalTransition)
}

// IsMissingPrerequisite checks if an error is a missing prerequisite error
func IsMissingPrerequisite(err error) bool {
	return isType(err, ErrorTypeMissingPrerequisite)
}

// IsInternal checks if an error is an internal error
func IsInternal(err error) bool {
	return isType(err, ErrorTypeInternal)
}

// Reason extracts the stable reason code from an application error, or ""
func Reason(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Reason
	}
	return ""
}

// IsDuplicateError checks if an error is a database duplicate key error
func IsDuplicateError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "duplicate key") ||
		strings.Contains(errStr, "UNIQUE constraint") ||
		strings.Contains(errStr, "duplicate entry")
}
