package backend

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel error kinds for backend calls.
var (
	ErrUnavailable       = errors.New("backend unavailable")
	ErrUnexpectedStatus  = errors.New("unexpected backend status")
	ErrMalformedResponse = errors.New("malformed backend response")
)

// StatusError is returned for any non-2xx answer.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %d %s", e.Endpoint, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("%s: %d %s", e.Endpoint, e.StatusCode, e.Detail)
}

func (e *StatusError) Unwrap() error { return ErrUnexpectedStatus }
