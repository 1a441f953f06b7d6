// Package domainerrors defines the coded error type services return to
// transports. Stores return sentinel errors; services translate them into a
// Code here and handlers map the Code onto an HTTP status.
package domainerrors

import (
	"errors"
	"net/http"
)

// Code is a stable, client-facing error identifier.
type Code string

const (
	CodeInternal            Code = "internal_error"
	CodeBadRequest          Code = "bad_request"
	CodeValidation          Code = "validation_error"
	CodeUnauthorized        Code = "unauthorized"
	CodeForbidden           Code = "forbidden"
	CodeNotFound            Code = "not_found"
	CodeConflict            Code = "conflict"
	CodeInvalidState        Code = "invalid_state"
	CodeConfiguration       Code = "configuration_error"
	CodeAmbiguousCredential Code = "ambiguous_credential"
	CodeUpstream            Code = "upstream_error"
	CodeTimeout             Code = "upstream_timeout"
)

// Error carries a Code, a safe message and an optional cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a coded error without a cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to err. A nil err yields nil.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// Coder is implemented by error types outside this package that know which
// Code they map onto, such as upstream failures.
type Coder interface {
	DomainCode() Code
	DomainMessage() string
}

// HasCode reports whether any coded error in err's chain carries code.
func HasCode(err error, code Code) bool {
	for err != nil {
		var de *Error
		if !errors.As(err, &de) {
			return false
		}
		if de.Code == code {
			return true
		}
		err = de.Err
	}
	return false
}

// CodeOf returns the outermost code in err's chain, or CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	var c Coder
	if errors.As(err, &c) {
		return c.DomainCode()
	}
	return CodeInternal
}

// Message returns the outermost coded message, or an empty string.
func Message(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	var c Coder
	if errors.As(err, &c) {
		return c.DomainMessage()
	}
	return ""
}

// ToHTTPStatus maps a code onto the status handlers respond with.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeValidation, CodeInvalidState:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeAmbiguousCredential:
		return http.StatusUnprocessableEntity
	case CodeUpstream:
		return http.StatusBadGateway
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
