package okx

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// RequestFailedError is returned once every attempt of a signed request has failed.
type RequestFailedError struct {
	Method   string
	Endpoint string
	Err      error
}

func (e *RequestFailedError) Error() string {
	return fmt.Sprintf("okx: %s %s failed: %v", e.Method, e.Endpoint, e.Err)
}

func (e *RequestFailedError) Unwrap() error { return e.Err }

// StatusError reports an HTTP response with status >= 400.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http status %d: %s", e.StatusCode, e.Body)
}

// APIError reports a well-formed response whose envelope code is not "0".
type APIError struct {
	Code string
	Msg  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("okx: api error %s: %s", e.Code, e.Msg)
}

// AlwaysRetry is the default retry predicate.
func AlwaysRetry(error) bool { return true }

// RetryTransient retries timeouts, network failures, 429 and 5xx responses only.
func RetryTransient(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusTooManyRequests || statusErr.StatusCode >= http.StatusInternalServerError
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
