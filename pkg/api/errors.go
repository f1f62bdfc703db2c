package api

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed API call.
type ErrorKind string

const (
	// KindUnreachable covers network and transport failures.
	KindUnreachable ErrorKind = "unreachable"
	// KindRemoteRejected covers non-2xx responses. Message carries the
	// server's own error text when the body had one.
	KindRemoteRejected ErrorKind = "remote_rejected"
	// KindInvalidShape covers responses that parsed as JSON but matched
	// none of the tolerated structures for the endpoint.
	KindInvalidShape ErrorKind = "invalid_shape"
)

// Error is the failure type returned by every Client method.
type Error struct {
	Kind       ErrorKind
	Endpoint   string
	StatusCode int
	Message    string
	cause      error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (status %d): %s", e.Endpoint, e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Endpoint, e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// IsKind reports whether err is (or wraps) an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == kind
}

func unreachable(endpoint string, cause error) *Error {
	return &Error{Kind: KindUnreachable, Endpoint: endpoint, Message: cause.Error(), cause: cause}
}

func remoteRejected(endpoint string, status int, message string) *Error {
	return &Error{Kind: KindRemoteRejected, Endpoint: endpoint, StatusCode: status, Message: message}
}

func invalidShape(endpoint, detail string) *Error {
	return &Error{Kind: KindInvalidShape, Endpoint: endpoint, Message: detail}
}
