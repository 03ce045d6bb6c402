package ccapi

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"syscall"
)

// Error types for cloud API operations

// ErrorKind represents the category of error that occurred
type ErrorKind int

const (
	// KindConfig indicates missing or unreadable credentials
	KindConfig ErrorKind = iota
	// KindAuth indicates an authentication failure (rejected credentials,
	// failed token exchange)
	KindAuth
	// KindNetwork indicates a network-level error (connection refused, timeout, etc.)
	KindNetwork
	// KindHTTP indicates an HTTP-level error (unexpected status code)
	KindHTTP
	// KindProtocol indicates a malformed or unexpected response shape
	KindProtocol
	// KindTimeout indicates a request timeout
	KindTimeout
	// KindConnectionRefused indicates the backend refused the connection
	KindConnectionRefused
	// KindDNS indicates a DNS resolution failure
	KindDNS
	// KindOutOfRange indicates an argument outside its valid range
	KindOutOfRange
	// KindUnknown indicates an unknown or unexpected error
	KindUnknown
)

// String returns a human-readable name for the error kind
func (k ErrorKind) String() string {
	switch k {
	case KindConfig:
		return "Configuration Error"
	case KindAuth:
		return "Authentication Error"
	case KindNetwork:
		return "Network Error"
	case KindHTTP:
		return "HTTP Error"
	case KindProtocol:
		return "Protocol Error"
	case KindTimeout:
		return "Timeout"
	case KindConnectionRefused:
		return "Connection Refused"
	case KindDNS:
		return "DNS Error"
	case KindOutOfRange:
		return "Out Of Range"
	case KindUnknown:
		return "Unknown Error"
	default:
		return fmt.Sprintf("ErrorKind(%d)", k)
	}
}

// Error represents a failure talking to the ComfortControl backend
type Error struct {
	Kind       ErrorKind // Category of error
	Message    string    // Human-readable error message
	StatusCode int       // HTTP status code (if applicable)
	Err        error     // Underlying error (if any)
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// ClassifyNetworkError analyzes a transport error and returns a more specific
// error kind
func ClassifyNetworkError(err error) *Error {
	if err == nil {
		return nil
	}

	// Check for timeout errors
	if os.IsTimeout(err) {
		return &Error{
			Kind:    KindTimeout,
			Message: "Request timed out",
			Err:     err,
		}
	}

	// Check for DNS errors
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &Error{
			Kind:    KindDNS,
			Message: fmt.Sprintf("DNS resolution failed for %s", dnsErr.Name),
			Err:     err,
		}
	}

	// Check for connection refused
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if errors.Is(opErr.Err, syscall.ECONNREFUSED) {
			return &Error{
				Kind:    KindConnectionRefused,
				Message: "Backend refused connection",
				Err:     err,
			}
		}
	}

	// Check for URL errors
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		// Recursively classify the underlying error
		return ClassifyNetworkError(urlErr.Err)
	}

	// Generic network error
	return &Error{
		Kind:    KindNetwork,
		Message: "Network error occurred",
		Err:     err,
	}
}

// NewConfigError creates a configuration error
func NewConfigError(message string, err error) *Error {
	return &Error{
		Kind:    KindConfig,
		Message: message,
		Err:     err,
	}
}

// NewAuthError creates an authentication error
func NewAuthError(message string, statusCode int) *Error {
	return &Error{
		Kind:       KindAuth,
		Message:    message,
		StatusCode: statusCode,
	}
}

// NewNetworkError creates a network-level error with automatic classification
func NewNetworkError(message string, err error) *Error {
	classified := ClassifyNetworkError(err)
	if classified != nil {
		classified.Message = message
		return classified
	}
	return &Error{
		Kind:    KindNetwork,
		Message: message,
		Err:     err,
	}
}

// NewHTTPError creates an HTTP-level error carrying the response status
func NewHTTPError(statusCode int, message string) *Error {
	return &Error{
		Kind:       KindHTTP,
		Message:    message,
		StatusCode: statusCode,
	}
}

// NewProtocolError creates an error for a malformed or unexpected response
func NewProtocolError(message string, err error) *Error {
	return &Error{
		Kind:    KindProtocol,
		Message: message,
		Err:     err,
	}
}

// NewOutOfRangeError creates an error for an argument outside its valid range
func NewOutOfRangeError(message string) *Error {
	return &Error{
		Kind:    KindOutOfRange,
		Message: message,
	}
}

// IsConfigError checks if an error is a configuration error
func IsConfigError(err error) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind == KindConfig
	}
	return false
}

// IsAuthError checks if an error is an authentication error
func IsAuthError(err error) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind == KindAuth
	}
	return false
}

// IsNetworkError checks if an error is a network error (including timeout,
// connection refused and DNS failures)
func IsNetworkError(err error) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind == KindNetwork ||
			apiErr.Kind == KindTimeout ||
			apiErr.Kind == KindConnectionRefused ||
			apiErr.Kind == KindDNS
	}
	return false
}

// IsHTTPError checks if an error is an HTTP error
func IsHTTPError(err error) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind == KindHTTP
	}
	return false
}

// IsProtocolError checks if an error is a protocol error
func IsProtocolError(err error) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind == KindProtocol
	}
	return false
}

// IsOutOfRange checks if an error reports an out-of-range argument
func IsOutOfRange(err error) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind == KindOutOfRange
	}
	return false
}

// IsUnauthorized reports whether an error carries a 401 status
func IsUnauthorized(err error) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusUnauthorized
	}
	return false
}

// StatusDescription returns a description for the given HTTP status code
func StatusDescription(code int) string {
	switch code {
	case http.StatusOK:
		return "The request was successfully processed."
	case http.StatusNoContent:
		return "The request was successful, but there is no content to return."
	case http.StatusBadRequest:
		return "The request contains errors or invalid parameters."
	case http.StatusUnauthorized:
		return "Authentication is required or has failed."
	case http.StatusNotFound:
		return "The requested resource could not be found."
	case http.StatusTooManyRequests:
		return "The client has sent too many requests (rate limiting)."
	case http.StatusInternalServerError:
		return "The server encountered an unexpected condition."
	case http.StatusServiceUnavailable:
		return "The server is temporarily unable to process the request."
	default:
		return "Unknown status code."
	}
}
