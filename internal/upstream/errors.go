package upstream

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	dErrors "provenance/pkg/domain-errors"
)

// Category is the normalized failure taxonomy for calls to external authorities.
type Category string

const (
	// CategoryAuth indicates the upstream refused our client credentials or token.
	CategoryAuth Category = "authentication"

	// CategoryTimeout indicates the call exceeded its deadline.
	CategoryTimeout Category = "timeout"

	// CategoryUnavailable indicates a transport failure or a 5xx/429 response.
	CategoryUnavailable Category = "unavailable"

	// CategoryRejected indicates any other non-2xx response.
	CategoryRejected Category = "rejected"

	// CategoryBadResponse indicates a 2xx response we could not use.
	CategoryBadResponse Category = "bad_response"
)

// maxBodyInError keeps error values bounded when upstreams return HTML pages.
const maxBodyInError = 2048

// Error wraps upstream failures with normalized categorization. Status and
// Body are preserved for diagnostics.
type Error struct {
	Category   Category
	Upstream   string
	Operation  string
	Status     int
	Body       string
	Message    string
	Underlying error
	Retryable  bool
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("upstream %s %s [%s]", e.Upstream, e.Operation, e.Category)
	if e.Status != 0 {
		msg += fmt.Sprintf(" status %d", e.Status)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Underlying != nil {
		msg += ": " + e.Underlying.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Underlying
}

// DomainCode maps the category onto the transport-facing code.
func (e *Error) DomainCode() dErrors.Code {
	if e.Category == CategoryTimeout {
		return dErrors.CodeTimeout
	}
	return dErrors.CodeUpstream
}

// DomainMessage is safe to return to API callers.
func (e *Error) DomainMessage() string {
	switch e.Category {
	case CategoryAuth:
		return e.Upstream + " rejected service credentials"
	case CategoryTimeout:
		return e.Upstream + " did not respond in time"
	case CategoryBadResponse:
		return e.Upstream + " returned an unusable response"
	default:
		return e.Upstream + " request failed"
	}
}

// NewError creates a normalized upstream error.
func NewError(category Category, upstreamName, operation, message string, underlying error) *Error {
	return &Error{
		Category:   category,
		Upstream:   upstreamName,
		Operation:  operation,
		Message:    message,
		Underlying: underlying,
		Retryable:  category == CategoryTimeout || category == CategoryUnavailable,
	}
}

// FromResponse classifies a non-2xx response.
func FromResponse(upstreamName, operation string, status int, body []byte) *Error {
	var category Category
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		category = CategoryAuth
	case status == http.StatusTooManyRequests || status >= http.StatusInternalServerError:
		category = CategoryUnavailable
	default:
		category = CategoryRejected
	}
	e := NewError(category, upstreamName, operation, http.StatusText(status), nil)
	e.Status = status
	if len(body) > maxBodyInError {
		body = body[:maxBodyInError]
	}
	e.Body = string(body)
	return e
}

// FromTransport classifies an error returned by http.Client.Do.
func FromTransport(upstreamName, operation string, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return NewError(CategoryTimeout, upstreamName, operation, "deadline exceeded", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewError(CategoryTimeout, upstreamName, operation, "request timed out", err)
	}
	return NewError(CategoryUnavailable, upstreamName, operation, "transport failure", err)
}

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var ue *Error
	if errors.As(err, &ue) {
		return ue.Retryable
	}
	return false
}

// GetCategory extracts the category, or "" for non-upstream errors.
func GetCategory(err error) Category {
	var ue *Error
	if errors.As(err, &ue) {
		return ue.Category
	}
	return ""
}

// StatusOf returns the upstream HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var ue *Error
	if errors.As(err, &ue) {
		return ue.Status
	}
	return 0
}
