package api

import (
	"fmt"

	"github.com/go-faster/errors"
)

// ErrNotAuthenticated is returned when the service sends us to the login page.
var ErrNotAuthenticated = errors.New("not authenticated: run `repack login`")

// TransportError is a request that never produced a usable result body:
// network failures, unreadable bodies and non-JSON answers.
type TransportError struct {
	Method    string
	Path      string
	Status    int
	RequestID string
	Err       error
}

func (e *TransportError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s %s (HTTP %d, request %s): %v", e.Method, e.Path, e.Status, e.RequestID, e.Err)
	}
	return fmt.Sprintf("%s %s (request %s): %v", e.Method, e.Path, e.RequestID, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RequestIDOf extracts the request id from err, if it carries one.
func RequestIDOf(err error) string {
	var te *TransportError
	if errors.As(err, &te) {
		return te.RequestID
	}
	return ""
}
