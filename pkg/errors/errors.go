package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown      ErrorCode = "UNKNOWN"
	ErrInternal     ErrorCode = "INTERNAL"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	ErrNotFound     ErrorCode = "NOT_FOUND"
	ErrPermission   ErrorCode = "PERMISSION"

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigValid ErrorCode = "CONFIG_INVALID"

	// Journal errors
	ErrNoJournal     ErrorCode = "NO_JOURNAL"
	ErrJournalAppend ErrorCode = "JOURNAL_APPEND"
	ErrJournalDecode ErrorCode = "JOURNAL_DECODE"

	// Backup store errors
	ErrBackupFailed   ErrorCode = "BACKUP_FAILED"
	ErrBackupNotFound ErrorCode = "BACKUP_NOT_FOUND"

	// Mutation errors
	ErrMutationFailed ErrorCode = "MUTATION_FAILED"

	// Approval gate outcomes
	ErrUserDeclined ErrorCode = "USER_DECLINED"
)

// SettleError represents a structured error with code and details
type SettleError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *SettleError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *SettleError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *SettleError) Is(target error) bool {
	var targetErr *SettleError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new SettleError with the given code and message
func New(code ErrorCode, message string) *SettleError {
	return &SettleError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new SettleError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *SettleError {
	return &SettleError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a SettleError
func Wrap(err error, code ErrorCode, message string) *SettleError {
	if err == nil {
		return nil
	}
	return &SettleError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *SettleError {
	if err == nil {
		return nil
	}
	return &SettleError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *SettleError) WithDetail(key string, value interface{}) *SettleError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var settleErr *SettleError
	if errors.As(err, &settleErr) {
		return settleErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a SettleError
func GetErrorCode(err error) ErrorCode {
	var settleErr *SettleError
	if errors.As(err, &settleErr) {
		return settleErr.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns the details from an error, or nil if not a SettleError
func GetErrorDetails(err error) map[string]interface{} {
	var settleErr *SettleError
	if errors.As(err, &settleErr) {
		return settleErr.Details
	}
	return nil
}
