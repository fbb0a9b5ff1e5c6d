package session

import (
	"errors"
	"fmt"
)

// ErrSessionExpired is the only auth-related error that crosses the
// authenticated-request boundary. Callers check it with errors.Is and route
// the user to login; everything else that comes out of the pipeline is an
// ordinary request failure.
var ErrSessionExpired = errors.New("session expired")

// HTTPError is a non-2xx response from the backend, with the fields of its
// error envelope that matter for classification and logging.
type HTTPError struct {
	StatusCode int
	Method     string
	Path       string
	Code       string
	Message    string
	RequestID  string
	// Refresh marks a failure of the refresh endpoint itself, which is
	// terminal rather than recoverable.
	Refresh bool
}

func (e *HTTPError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s %s: %d %s (%s)", e.Method, e.Path, e.StatusCode, e.Message, e.Code)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
}
