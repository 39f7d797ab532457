package wire

import "fmt"

// Code identifies one entry of the closed error taxonomy shared by every
// layer of the bridge.
type Code string

const (
	// Command-level failures produced by the executor.
	CodeNotFound            Code = "NOT_FOUND"
	CodeNotAllowed          Code = "NOT_ALLOWED"
	CodeTypeMismatch        Code = "TYPE_MISMATCH"
	CodeInvalidModification Code = "INVALID_MODIFICATION"
	CodeLocked              Code = "LOCKED"
	CodeUnknownCommand      Code = "UNKNOWN_COMMAND"
	CodeUnknownError        Code = "UNKNOWN_ERROR"

	// Bridge-level failures produced by the relay, kept separate so callers
	// can distinguish "the bridge failed" from "the operation failed".
	CodeNoResult       Code = "NO_RESULT"
	CodeExecutionError Code = "EXECUTION_ERROR"
)

// Error is the structured failure carried in every non-success response.
// Callers branch on Code; Message and Details are diagnostic only.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewError builds a taxonomy error.
func NewError(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Errorf builds a taxonomy error with a formatted message.
func Errorf(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithDetails attaches a diagnostic trace to the error and returns it.
func (e *Error) WithDetails(details string) *Error {
	e.Details = details
	return e
}
