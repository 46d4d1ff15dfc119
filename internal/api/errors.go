package api

import (
	"errors"
	"fmt"
	"strings"
)

// TransportError means the call never produced a backend response:
// connection refused, timeout, or an unreadable reply.
type TransportError struct {
	Call string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: backend unreachable: %v", e.Call, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ApplicationError means the backend answered with success=false, or
// omitted data the call requires. Message is the backend-supplied text.
type ApplicationError struct {
	Call    string
	Code    int
	Message string
}

func (e *ApplicationError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s failed (code %d)", e.Call, e.Code)
	}
	return e.Message
}

// ValidationError is raised before any call is made, for input the
// client can reject locally (empty fields, malformed email, mismatched
// password confirmation). It never touches the cache.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// unauthorizedMarkers classify a failed session probe as "not logged in".
// The backend has no dedicated wire kind for this; the markers mirror the
// strings its auth middleware emits.
var unauthorizedMarkers = []string{"login", "token", "unauthorized", "401", "403"} //nolint:gochecknoglobals // Fixed classification table

// IsUnauthorized reports whether err reads as an expected
// "not authenticated" outcome rather than a hard failure. Matching is a
// case-insensitive scan of the error text.
func IsUnauthorized(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range unauthorizedMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// IsTransport reports whether err is (or wraps) a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
