package api

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a backend request failed.
type ErrorKind int

const (
	// KindTransport means the request never produced an HTTP response
	// (network failure, timeout, open circuit breaker).
	KindTransport ErrorKind = iota

	// KindEnvelope means the backend answered but reported failure, or the
	// response lacked a field the caller needed.
	KindEnvelope

	// KindNotFound means the requested resource does not exist.
	KindNotFound

	// KindUnauthorized means the session token was missing or rejected.
	KindUnauthorized
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindEnvelope:
		return "envelope"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// RequestError is the single error type surfaced for failed backend calls.
type RequestError struct {
	Kind   ErrorKind
	Method string
	Path   string

	// Status is the HTTP status, or 0 for transport failures.
	Status int

	// Message is the backend's error text when it sent one.
	Message string

	Err error
}

func (e *RequestError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s %s: %s error (%d): %s", e.Method, e.Path, e.Kind, e.Status, msg)
	}
	return fmt.Sprintf("%s %s: %s error: %s", e.Method, e.Path, e.Kind, msg)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// AsRequestError extracts a *RequestError from err's chain.
func AsRequestError(err error) (*RequestError, bool) {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr, true
	}
	return nil, false
}

func isKind(err error, kind ErrorKind) bool {
	reqErr, ok := AsRequestError(err)
	return ok && reqErr.Kind == kind
}

// IsNotFound reports whether err is a KindNotFound RequestError.
func IsNotFound(err error) bool { return isKind(err, KindNotFound) }

// IsUnauthorized reports whether err is a KindUnauthorized RequestError.
func IsUnauthorized(err error) bool { return isKind(err, KindUnauthorized) }

// IsTransport reports whether err is a KindTransport RequestError.
func IsTransport(err error) bool { return isKind(err, KindTransport) }

// IsEnvelope reports whether err is a KindEnvelope RequestError.
func IsEnvelope(err error) bool { return isKind(err, KindEnvelope) }
