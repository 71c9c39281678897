package dpsapi

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// StatusError reports a non-2xx response from the scheduling API.
type StatusError struct {
	Path       string
	StatusCode int
	Body       string
}

func (e StatusError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Path, e.StatusCode, e.Body)
}

// RetriesExhaustedError reports that a request failed on every attempt of
// the retry budget. It is fatal for the run.
type RetriesExhaustedError struct {
	Path     string
	Attempts int
	Err      error
}

func (e RetriesExhaustedError) Error() string {
	return fmt.Errorf("%s: giving up after %d attempts: %w", e.Path, e.Attempts, e.Err).Error()
}

func (e RetriesExhaustedError) Unwrap() error {
	return e.Err
}

func errorTypeLabel(err error) string {
	if err == nil {
		return "unknown"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return "connection"
	}
	var statusErr StatusError
	if errors.As(err, &statusErr) {
		return "status"
	}
	return "other"
}
