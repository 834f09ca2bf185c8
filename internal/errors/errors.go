package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a RecipeVault error code.
type ErrorCode string

const (
	ErrInvalidRequest     ErrorCode = "INVALID_REQUEST"     // 400
	ErrOperatorRequired   ErrorCode = "OPERATOR_REQUIRED"   // 401
	ErrNotFound           ErrorCode = "NOT_FOUND"           // 404
	ErrFileNotFound       ErrorCode = "FILE_NOT_FOUND"      // 404
	ErrValidation         ErrorCode = "VALIDATION_FAILED"   // 422
	ErrRateLimited        ErrorCode = "RATE_LIMITED"        // 429
	ErrCancelled          ErrorCode = "CANCELLED"           // 499
	ErrPersistenceCorrupt ErrorCode = "PERSISTENCE_CORRUPT" // 500
	ErrInternal           ErrorCode = "INTERNAL"            // 500
)

// VaultError represents a structured error with code, status, and details.
type VaultError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any

	cause error
}

// Error implements the error interface.
func (e *VaultError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *VaultError) Unwrap() error {
	return e.cause
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *VaultError {
	return &VaultError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewOperatorRequired creates a 401 error for operations that need an operator session.
func NewOperatorRequired(action string) *VaultError {
	return &VaultError{
		Code:    ErrOperatorRequired,
		Status:  401,
		Message: fmt.Sprintf("operator session required to %s", action),
		Details: map[string]any{"action": action},
	}
}

// NewNotFound creates a 404 error for when a recipe cannot be found.
func NewNotFound(id int64) *VaultError {
	return &VaultError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("recipe not found: %d", id),
		Details: map[string]any{"id": id},
	}
}

// NewFileNotFound creates a 404 error for a missing import file.
func NewFileNotFound(path string) *VaultError {
	return &VaultError{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewValidation creates a 422 error for a rejected recipe submission.
func NewValidation(field, msg string) *VaultError {
	return &VaultError{
		Code:    ErrValidation,
		Status:  422,
		Message: msg,
		Details: map[string]any{"field": field},
	}
}

// NewRateLimited creates a 429 error when a caller exceeds its attempt budget.
func NewRateLimited(key string) *VaultError {
	return &VaultError{
		Code:    ErrRateLimited,
		Status:  429,
		Message: "too many attempts, try again later",
		Details: map[string]any{"key": key},
	}
}

// NewCancelled creates a 499 error for an operation aborted by its context.
func NewCancelled(op string) *VaultError {
	return &VaultError{
		Code:    ErrCancelled,
		Status:  499,
		Message: fmt.Sprintf("%s cancelled", op),
	}
}

// NewPersistenceCorrupt creates a 500 error for a stored document that fails to parse.
func NewPersistenceCorrupt(key string, err error) *VaultError {
	msg := fmt.Sprintf("stored document %q is corrupt", key)
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	return &VaultError{
		Code:    ErrPersistenceCorrupt,
		Status:  500,
		Message: msg,
		Details: map[string]any{"key": key},
		cause:   err,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *VaultError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &VaultError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
		cause:   err,
	}
}

// Is checks if an error is (or wraps) a VaultError with the given code.
func Is(err error, code ErrorCode) bool {
	var vErr *VaultError
	if stderrors.As(err, &vErr) {
		return vErr.Code == code
	}
	return false
}
