package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"
)

// Kind classifies an error against the subsystem taxonomy. Handlers use it to
// pick a transport status; the orchestrator uses it to decide between a typed
// failure and a degraded fallback.
type Kind int

const (
	// KindInternal - unclassified failure
	KindInternal Kind = iota
	// KindInvalidArgument - bad input, caller's fault
	KindInvalidArgument
	// KindInvalidState - operation not valid in the aggregate's current state
	KindInvalidState
	// KindNotFound - session or skill absent
	KindNotFound
	// KindConflict - optimistic concurrency check failed
	KindConflict
	// KindUnsupportedOperation - known service, unknown operation
	KindUnsupportedOperation
	// KindUnknownService - service missing from the endpoint table
	KindUnknownService
	// KindUnsupportedBackend - skill references a service the client cannot reach
	KindUnsupportedBackend
	// KindUpstreamUnavailable - downstream service exhausted retries
	KindUpstreamUnavailable
	// KindStoreUnavailable - session store or registry failure
	KindStoreUnavailable
	// KindCancelled - caller-initiated abort
	KindCancelled
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid_argument"
	case KindInvalidState:
		return "invalid_state"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnsupportedOperation:
		return "unsupported_operation"
	case KindUnknownService:
		return "unknown_service"
	case KindUnsupportedBackend:
		return "unsupported_backend"
	case KindUpstreamUnavailable:
		return "upstream_unavailable"
	case KindStoreUnavailable:
		return "store_unavailable"
	case KindCancelled:
		return "cancelled"
	default:
		return "internal"
	}
}

// Error is the typed error carried across component boundaries.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		if e.Err != nil {
			return fmt.Sprintf("%s: %v", e.Message, e.Err)
		}
		return e.Message
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a typed error with a message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying error.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the Kind from an error chain. Context cancellation maps to
// KindCancelled so callers can distinguish aborts from upstream failures.
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindCancelled
	}
	return KindInternal
}

// Is reports whether the error chain carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// IsNotFound reports whether err represents an absent session or skill.
func IsNotFound(err error) bool { return Is(err, KindNotFound) }

// IsInvalidState reports whether err represents an aggregate state violation.
func IsInvalidState(err error) bool { return Is(err, KindInvalidState) }

// IsCancelled reports whether err represents a caller-initiated abort.
func IsCancelled(err error) bool { return Is(err, KindCancelled) }

// HTTPStatusError represents a non-2xx response from a downstream service.
type HTTPStatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Status)
}

// NewHTTPStatusError creates an HTTP status error.
func NewHTTPStatusError(statusCode int, status, body string) error {
	return &HTTPStatusError{StatusCode: statusCode, Status: status, Body: body}
}

// IsTransient checks if an error is retry-able. Transport failures and non-2xx
// responses are transient; typed taxonomy errors and context cancellation are
// not.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var typed *Error
	if errors.As(err, &typed) {
		// Taxonomy errors are routing/validation failures, never retried.
		return false
	}

	// Non-2xx from a downstream service. The retry policy covers every
	// failed response, not just 5xx.
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return true
	}

	if isNetworkError(err) {
		return true
	}

	if isSyscallError(err) {
		return true
	}

	return false
}

func isNetworkError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

func isSyscallError(err error) bool {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ECONNREFUSED, syscall.ECONNRESET, syscall.EPIPE,
			syscall.ETIMEDOUT, syscall.ENETUNREACH, syscall.EHOSTUNREACH:
			return true
		}
	}
	return false
}

// HTTPStatus maps a Kind to the status code the API surface reports.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindInvalidArgument:
		return http.StatusBadRequest
	case KindInvalidState, KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindUnsupportedOperation, KindUnknownService, KindUnsupportedBackend:
		return http.StatusUnprocessableEntity
	case KindUpstreamUnavailable, KindStoreUnavailable:
		return http.StatusBadGateway
	case KindCancelled:
		return 499 // client closed request
	default:
		return http.StatusInternalServerError
	}
}
