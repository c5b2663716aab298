package providers

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind is the closed set of classified failure kinds shared by all
// adapters and the dispatch layer.
type ErrorKind string

const (
	// KindConfiguration marks missing mandatory configuration or an unset
	// API base URL. Fatal, raised at construction or first call.
	KindConfiguration ErrorKind = "configuration"

	// KindAdapterNotFound marks an adapter identifier that resolves to no
	// known adapter type. A deployment bug, not a runtime failure.
	KindAdapterNotFound ErrorKind = "adapter_not_found"

	// KindProviderNotFound marks a provider name with no enabled entry.
	KindProviderNotFound ErrorKind = "provider_not_found"

	// KindTimeout marks a connection or transport timeout before any
	// response was received.
	KindTimeout ErrorKind = "timeout"

	// KindBadRequest marks HTTP 400/422 from the provider.
	KindBadRequest ErrorKind = "bad_request"

	// KindUnauthenticated marks HTTP 401/403 from the provider.
	KindUnauthenticated ErrorKind = "unauthenticated"

	// KindRateLimited marks HTTP 429 from the provider.
	KindRateLimited ErrorKind = "rate_limited"

	// KindServerError marks HTTP 500/502/503/504 from the provider.
	KindServerError ErrorKind = "server_error"

	// KindGeneric marks any other HTTP status or transport failure.
	KindGeneric ErrorKind = "generic"

	// KindUnsupportedCapability marks a call to an operation the adapter
	// does not implement. A static capability gap, not an API failure.
	KindUnsupportedCapability ErrorKind = "unsupported_capability"
)

// APIError is the uniform error produced by adapters and the dispatch layer.
// It is created once when a failure is detected and never mutated.
type APIError struct {
	// Kind classifies the failure.
	Kind ErrorKind

	// Message is human-readable, prefixed with the adapter's short name and,
	// when known, the numeric HTTP status.
	Message string

	// StatusCode is the HTTP status of the failed exchange, 0 when no HTTP
	// response was obtained.
	StatusCode int

	// Err is the underlying transport cause, when any.
	Err error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the transport cause for errors.Is/As chains.
func (e *APIError) Unwrap() error {
	return e.Err
}

// Is matches two APIErrors by kind.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Retryable reports whether a caller may reasonably retry the call. The
// client itself never retries.
func (e *APIError) Retryable() bool {
	switch e.Kind {
	case KindTimeout, KindRateLimited, KindServerError:
		return true
	default:
		return false
	}
}

// NewAPIError creates a classified error.
func NewAPIError(kind ErrorKind, message string, statusCode int, cause error) *APIError {
	return &APIError{
		Kind:       kind,
		Message:    message,
		StatusCode: statusCode,
		Err:        cause,
	}
}

// KindOf returns the classification of err, or an empty kind for errors that
// did not originate in this package.
func KindOf(err error) ErrorKind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ""
}

// IsKind reports whether err carries the given classification.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

// ClassifyStatus maps an HTTP failure status to its error kind.
func ClassifyStatus(status int) ErrorKind {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return KindBadRequest
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindUnauthenticated
	case http.StatusTooManyRequests:
		return KindRateLimited
	case http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return KindServerError
	default:
		return KindGeneric
	}
}

// ErrorMessageFromBody pulls the provider-supplied error text out of a
// decoded response body: error.message, then a top-level message, then a
// top-level error when it is itself a string. Empty when none apply.
func ErrorMessageFromBody(body map[string]interface{}) string {
	if inner := MapValue(body, "error"); inner != nil {
		if msg := StringValue(inner, "message"); msg != "" {
			return msg
		}
	}
	if msg := StringValue(body, "message"); msg != "" {
		return msg
	}
	if s, ok := body["error"].(string); ok && s != "" {
		return s
	}
	return ""
}

// classifyHTTPError builds the APIError for a non-success HTTP response.
func classifyHTTPError(adapterName string, status int, body map[string]interface{}, raw string) *APIError {
	msg := ErrorMessageFromBody(body)
	if msg == "" {
		msg = raw
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return NewAPIError(ClassifyStatus(status),
		fmt.Sprintf("%s: status %d: %s", adapterName, status, msg), status, nil)
}

// classifyTransportError builds the APIError for a failure with no HTTP
// response at all.
func classifyTransportError(adapterName string, cause error) *APIError {
	kind := KindGeneric
	if isTimeout(cause) {
		kind = KindTimeout
	}
	return NewAPIError(kind, fmt.Sprintf("%s: %s", adapterName, cause.Error()), 0, cause)
}
