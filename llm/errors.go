package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// HTTPError reports a non-2xx response from the backend.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("backend returned HTTP %d: %s", e.Status, e.Body)
}

// TimeoutError reports a backend call that exceeded its deadline.
type TimeoutError struct {
	Err error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("backend request timed out: %v", e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// ConnectionError reports a transport-level failure before any response
// was received.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("cannot connect to backend: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ProtocolError reports a 2xx reply that could not be decoded into the
// expected shape.
type ProtocolError struct {
	Reason string
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unexpected backend reply: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("unexpected backend reply: %s", e.Reason)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// WrapTransport classifies an http.Client error as a timeout or a
// connection failure. Adapters call it on every failed round trip.
func WrapTransport(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TimeoutError{Err: err}
	}
	return &ConnectionError{Err: err}
}
