package errors

import (
	"context"
	"errors"
	"fmt"
)

// Code represents an error code for categorizing errors
type Code string

const (
	// CodeUnknown indicates an unknown error
	CodeUnknown Code = "unknown"

	// CodeInvalidArgument indicates client specified an invalid argument
	CodeInvalidArgument Code = "invalid_argument"

	// CodeNotFound indicates a requested resource was not found
	CodeNotFound Code = "not_found"

	// CodeInternal indicates internal system error
	CodeInternal Code = "internal"

	// CodeUnavailable indicates a dependency is currently unavailable
	CodeUnavailable Code = "unavailable"

	// CodeValidation indicates a validation error
	CodeValidation Code = "validation"

	// CodeOracleUnavailable indicates the narration oracle could not be reached
	CodeOracleUnavailable Code = "oracle_unavailable"

	// CodeOracleTimeout indicates the narration oracle did not answer before the deadline
	CodeOracleTimeout Code = "oracle_timeout"

	// CodeMalformedJudgment indicates the oracle answered with empty or unparsable content
	CodeMalformedJudgment Code = "malformed_judgment"

	// CodeInterpreterRejected indicates the oracle explicitly refused to judge an action
	CodeInterpreterRejected Code = "interpreter_rejected"

	// CodeNoValidCategories indicates a check was required but no known reference category was selected
	CodeNoValidCategories Code = "no_valid_categories"

	// CodeStateViolation indicates a narrative unit is illegal in the current context state
	CodeStateViolation Code = "state_violation"

	// CodeInvalidExpression indicates a malformed dice expression
	CodeInvalidExpression Code = "invalid_expression"
)

// Error represents an application error with code and metadata
type Error struct {
	// Code is the error code
	Code Code

	// Message is the error message
	Message string

	// Cause is the wrapped error
	Cause error

	// Meta contains additional context
	Meta map[string]any
}

// Error returns the error message
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithMeta adds metadata to the error (builder pattern)
func (e *Error) WithMeta(key string, value any) *Error {
	if e.Meta == nil {
		e.Meta = make(map[string]any)
	}
	e.Meta[key] = value
	return e
}

// New creates a new error with the given code and message
func New(code Code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new error with formatted message
func Newf(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) *Error {
	if err == nil {
		return nil
	}

	// Keep the code of an already classified error
	var dndErr *Error
	if errors.As(err, &dndErr) {
		return &Error{
			Code:    dndErr.Code,
			Message: message,
			Cause:   err,
			Meta:    copyMeta(dndErr.Meta),
		}
	}

	return &Error{
		Code:    CodeUnknown,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted message
func Wrapf(err error, format string, args ...any) *Error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WrapWithCode wraps an error with a specific code
func WrapWithCode(err error, code Code, message string) *Error {
	if err == nil {
		return nil
	}

	wrapped := Wrap(err, message)
	wrapped.Code = code
	return wrapped
}

// WrapOracle classifies a failed oracle call. Deadlines become oracle_timeout,
// anything else that is not already classified becomes oracle_unavailable.
func WrapOracle(err error, message string) *Error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return WrapWithCode(err, CodeOracleTimeout, message)
	}
	if GetCode(err) != CodeUnknown {
		return Wrap(err, message)
	}
	return WrapWithCode(err, CodeOracleUnavailable, message)
}

// Helper functions for common error types

// NotFound creates a not found error
func NotFound(message string) *Error {
	return New(CodeNotFound, message)
}

// NotFoundf creates a formatted not found error
func NotFoundf(format string, args ...any) *Error {
	return Newf(CodeNotFound, format, args...)
}

// InvalidArgument creates an invalid argument error
func InvalidArgument(message string) *Error {
	return New(CodeInvalidArgument, message)
}

// InvalidArgumentf creates a formatted invalid argument error
func InvalidArgumentf(format string, args ...any) *Error {
	return Newf(CodeInvalidArgument, format, args...)
}

// Internal creates an internal error
func Internal(message string) *Error {
	return New(CodeInternal, message)
}

// Internalf creates a formatted internal error
func Internalf(format string, args ...any) *Error {
	return Newf(CodeInternal, format, args...)
}

// Validation creates a validation error
func Validation(message string) *Error {
	return New(CodeValidation, message)
}

// Validationf creates a formatted validation error
func Validationf(format string, args ...any) *Error {
	return Newf(CodeValidation, format, args...)
}

// MalformedJudgment creates a malformed judgment error
func MalformedJudgment(message string) *Error {
	return New(CodeMalformedJudgment, message)
}

// InterpreterRejected creates an interpreter rejected error
func InterpreterRejected(message string) *Error {
	return New(CodeInterpreterRejected, message)
}

// NoValidCategories creates a no valid categories error
func NoValidCategories(message string) *Error {
	return New(CodeNoValidCategories, message)
}

// StateViolationf creates a formatted state violation error
func StateViolationf(format string, args ...any) *Error {
	return Newf(CodeStateViolation, format, args...)
}

// InvalidExpressionf creates a formatted invalid expression error
func InvalidExpressionf(format string, args ...any) *Error {
	return Newf(CodeInvalidExpression, format, args...)
}

// Error checking functions

// Is checks if the error is of a specific code
func Is(err error, code Code) bool {
	var dndErr *Error
	if errors.As(err, &dndErr) {
		return dndErr.Code == code
	}
	return false
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	return Is(err, CodeNotFound)
}

// IsInvalidArgument checks if the error is an invalid argument error
func IsInvalidArgument(err error) bool {
	return Is(err, CodeInvalidArgument)
}

// IsInternal checks if the error is an internal error
func IsInternal(err error) bool {
	return Is(err, CodeInternal)
}

// IsUnavailable checks if the error is an unavailable error
func IsUnavailable(err error) bool {
	return Is(err, CodeUnavailable)
}

// IsValidation checks if the error is a validation error
func IsValidation(err error) bool {
	return Is(err, CodeValidation)
}

// IsStateViolation checks if the error is a state violation
func IsStateViolation(err error) bool {
	return Is(err, CodeStateViolation)
}

// IsInvalidExpression checks if the error is an invalid dice expression
func IsInvalidExpression(err error) bool {
	return Is(err, CodeInvalidExpression)
}

// IsOracleError reports whether the error belongs to the oracle family:
// unreachable, timed out, malformed or rejected.
func IsOracleError(err error) bool {
	switch GetCode(err) {
	case CodeOracleUnavailable, CodeOracleTimeout, CodeMalformedJudgment, CodeInterpreterRejected:
		return true
	}
	return false
}

// GetCode returns the error code
func GetCode(err error) Code {
	var dndErr *Error
	if errors.As(err, &dndErr) {
		return dndErr.Code
	}
	return CodeUnknown
}

// GetMeta returns the error metadata
func GetMeta(err error) map[string]any {
	var dndErr *Error
	if errors.As(err, &dndErr) {
		return dndErr.Meta
	}
	return nil
}

// copyMeta creates a copy of the metadata map
func copyMeta(meta map[string]any) map[string]any {
	if meta == nil {
		return nil
	}

	copied := make(map[string]any, len(meta))
	for k, v := range meta {
		copied[k] = v
	}
	return copied
}
