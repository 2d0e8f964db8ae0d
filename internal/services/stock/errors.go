package stock

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes stock engine errors.
type ErrorCode string

const (
	// ErrCodeValidation indicates a malformed or incomplete request.
	ErrCodeValidation ErrorCode = "VALIDATION"

	// ErrCodeInvalidTransition indicates a status change not in the transition table.
	ErrCodeInvalidTransition ErrorCode = "INVALID_TRANSITION"

	// ErrCodeConflict indicates the target state was changed by someone else
	// or the request collides with existing allocations.
	ErrCodeConflict ErrorCode = "CONFLICT"

	// ErrCodeNotFound indicates the record does not exist for the caller's tenant.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeInsufficientStock indicates the candidate pool cannot cover the demand.
	ErrCodeInsufficientStock ErrorCode = "INSUFFICIENT_STOCK"

	// ErrCodeCapacityExceeded indicates the request would push a line above its expected quantity.
	ErrCodeCapacityExceeded ErrorCode = "CAPACITY_EXCEEDED"
)

// Error is a domain error with structured details for the caller.
type Error struct {
	Code    ErrorCode         `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func (e *Error) with(key, value string) *Error {
	if e.Details == nil {
		e.Details = map[string]string{}
	}
	e.Details[key] = value
	return e
}

// AsError extracts a domain error from err. Uses errors.As to handle wrapped errors.
func AsError(err error) (*Error, bool) {
	var se *Error
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// HasCode returns true if err is a domain error with the given code.
func HasCode(err error, code ErrorCode) bool {
	se, ok := AsError(err)
	return ok && se.Code == code
}
