package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorKind classifies an upstream failure.
type ErrorKind string

const (
	ErrKindNetwork ErrorKind = "network"
	ErrKindStatus  ErrorKind = "status"
	ErrKindDecode  ErrorKind = "decode"
	ErrKindTimeout ErrorKind = "timeout"
)

// AdapterError is the typed failure every source adapter surfaces. Failures
// are never cached; the next identical request retries upstream.
type AdapterError struct {
	Kind       ErrorKind
	Source     string
	Detail     string
	StatusCode int
}

func (e *AdapterError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s error: %s (status %d)", e.Source, e.Kind, e.Detail, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s error: %s", e.Source, e.Kind, e.Detail)
}

// Timeout reports whether the failure was a deadline or I/O timeout.
func (e *AdapterError) Timeout() bool {
	return e.Kind == ErrKindTimeout
}

func classify(source string, err error) *AdapterError {
	var advErr *AdapterError
	if errors.As(err, &advErr) {
		return advErr
	}

	kind := ErrKindNetwork
	if errors.Is(err, context.DeadlineExceeded) {
		kind = ErrKindTimeout
	} else {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			kind = ErrKindTimeout
		}
	}

	return &AdapterError{Kind: kind, Source: source, Detail: err.Error()}
}
