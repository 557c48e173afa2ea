package fetch

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel kinds for fetch errors.
var (
	// ErrStatus wraps every non-2xx response.
	ErrStatus = errors.New("unexpected status")
	// ErrRetriesExhausted means every attempt failed with a retryable error.
	ErrRetriesExhausted = errors.New("retries exhausted")
	// ErrBodyTooLarge means the response exceeded the configured limit.
	ErrBodyTooLarge = errors.New("response body too large")
	// ErrCircuitOpen means the host's breaker rejected the request.
	ErrCircuitOpen = errors.New("circuit open")
)

// StatusError carries the response code of a failed request.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %d %s", e.URL, e.Code, http.StatusText(e.Code))
}

func (e *StatusError) Unwrap() error { return ErrStatus }

// Retryable reports whether the status is worth another attempt.
func (e *StatusError) Retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= http.StatusInternalServerError
}
