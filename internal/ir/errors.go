package ir

import (
	"errors"
	"fmt"
)

// ErrorCode is the numeric failure code carried by a rejected call.
type ErrorCode int

const (
	// CodeNone marks a successful outcome.
	CodeNone ErrorCode = 0

	// CodeUnauthorized: caller is not a currently-authorized laboratory.
	CodeUnauthorized ErrorCode = 401

	// CodeForbidden: caller is not the contract owner.
	CodeForbidden ErrorCode = 403
)

// Output cases recorded on completions.
const (
	CaseSuccess      = "Success"
	CaseUnauthorized = "Unauthorized"
	CaseForbidden    = "Forbidden"
)

// ContractError is a business-rule rejection. A call that fails with a
// ContractError has left every registry unchanged.
type ContractError struct {
	Code    ErrorCode
	Case    string
	Message string
}

func (e *ContractError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s (%d)", e.Case, e.Code)
	}
	return fmt.Sprintf("%s (%d): %s", e.Case, e.Code, e.Message)
}

// Is matches any ContractError with the same code, so
// errors.Is(err, ErrForbidden) works regardless of the message.
func (e *ContractError) Is(target error) bool {
	var t *ContractError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Sentinel contract errors.
var (
	ErrUnauthorized = &ContractError{Code: CodeUnauthorized, Case: CaseUnauthorized}
	ErrForbidden    = &ContractError{Code: CodeForbidden, Case: CaseForbidden}
)

// Forbidden returns a 403 ContractError with a message.
func Forbidden(format string, args ...any) *ContractError {
	return &ContractError{Code: CodeForbidden, Case: CaseForbidden, Message: fmt.Sprintf(format, args...)}
}

// Unauthorized returns a 401 ContractError with a message.
func Unauthorized(format string, args ...any) *ContractError {
	return &ContractError{Code: CodeUnauthorized, Case: CaseUnauthorized, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the contract error code from err.
// Returns CodeNone for nil and for errors that are not contract errors.
func CodeOf(err error) ErrorCode {
	var ce *ContractError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return CodeNone
}

// ErrInvalidCall is wrapped by every argument decoding failure.
// An invalid call is rejected before execution and never logged.
var ErrInvalidCall = errors.New("invalid call")
