package transport

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrBodyTooLarge is returned when a response body exceeds the
	// configured size cap.
	ErrBodyTooLarge = errors.New("response body too large")

	// ErrInvalidProxy is returned when the proxy setting cannot be parsed
	// or uses an unsupported scheme.
	ErrInvalidProxy = errors.New("invalid proxy address")
)

// StatusError reports a response whose status code is not 2xx.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d %s",
		e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// IsStatus reports whether err is a StatusError.
func IsStatus(err error) bool {
	var se *StatusError
	return errors.As(err, &se)
}

// IsNotFound reports whether err is a StatusError carrying 404.
func IsNotFound(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode == http.StatusNotFound
	}
	return false
}
