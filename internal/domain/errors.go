package domain

import (
	"errors"
	"fmt"
)

// Code classifies a domain failure so transports can surface the
// concrete reason without inspecting error strings.
type Code string

const (
	// CodeValidation marks a malformed or missing required field.
	CodeValidation Code = "VALIDATION_ERROR"
	// CodeNotFound marks an unknown record id.
	CodeNotFound Code = "NOT_FOUND"
	// CodeCapacityExceeded marks a write refused at a record ceiling.
	CodeCapacityExceeded Code = "CAPACITY_EXCEEDED"
	// CodeMissingConfirmation marks a destructive clear without a token.
	CodeMissingConfirmation Code = "MISSING_CONFIRMATION"
	// CodeAnchorLost marks an unresolvable locator. Non-fatal: the
	// record persists and may resolve on a future load.
	CodeAnchorLost Code = "ANCHOR_LOST"
	// CodeUnsupportedFormat marks an unknown export or import format.
	CodeUnsupportedFormat Code = "UNSUPPORTED_FORMAT"
	// CodeTransport marks an undeliverable message or internal fault
	// converted to a response at the messaging boundary.
	CodeTransport Code = "TRANSPORT_FAILURE"
)

// Error is a coded domain error.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// NewError builds a coded error with a formatted message.
func NewError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// ErrorCode extracts the Code from err, or "" if err carries none.
func ErrorCode(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code Code) bool {
	return ErrorCode(err) == code
}

// CodeOrTransport returns code, or CodeTransport when the response
// carried none. Used when rebuilding an error from a wire response.
func CodeOrTransport(code Code) Code {
	if code == "" {
		return CodeTransport
	}
	return code
}
