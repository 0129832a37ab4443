package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies failures returned by the external service clients.
type Kind string

const (
	KindUnauthorized Kind = "unauthorized"
	KindBadRequest   Kind = "bad_request"
	KindServerError  Kind = "server_error"
	KindNetworkError Kind = "network_error"
	KindDecode       Kind = "decode"
)

// Error is the typed failure shared by every service client.
type Error struct {
	Service string
	Kind    Kind
	Status  int
	Message string
	Detail  string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status > 0 {
		return fmt.Sprintf("%s: %s (status %d): %s", e.Service, e.Kind, e.Status, msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Service, e.Kind, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the kind from err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// KindForStatus maps an HTTP status onto a kind.
func KindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindUnauthorized
	case status >= 500:
		return KindServerError
	default:
		return KindBadRequest
	}
}

// FromStatus builds an error for a failed HTTP exchange.
func FromStatus(service string, status int, message, detail string) *Error {
	if message == "" {
		message = fmt.Sprintf("request failed (status %d)", status)
	}
	return &Error{
		Service: service,
		Kind:    KindForStatus(status),
		Status:  status,
		Message: message,
		Detail:  detail,
	}
}

// Unauthorized reports missing or rejected credentials.
func Unauthorized(service, message string) *Error {
	return &Error{Service: service, Kind: KindUnauthorized, Message: message}
}

// BadRequest reports a request rejected before or by the remote service.
func BadRequest(service, message string) *Error {
	return &Error{Service: service, Kind: KindBadRequest, Message: message}
}

// Network wraps transport failures.
func Network(service string, err error) *Error {
	return &Error{Service: service, Kind: KindNetworkError, Message: "request failed", Err: err}
}

// Decode wraps response decoding failures.
func Decode(service string, status int, err error) *Error {
	return &Error{Service: service, Kind: KindDecode, Status: status, Message: "invalid response body", Err: err}
}
