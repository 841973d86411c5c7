package client

import (
	"errors"
	"fmt"
)

var (
	// ErrDisconnected is returned by a Connect that was cancelled by Disconnect.
	ErrDisconnected = errors.New("disconnected")
	// ErrUnknownAction is returned for an action kind the server does not accept.
	ErrUnknownAction = errors.New("unknown action")
)

// ConnectionError reports a failure to fetch the snapshot or open the stream.
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect: %s: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ActionError reports a failed action submission.
type ActionError struct {
	Kind string
	Err  error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("action %s: %v", e.Kind, e.Err)
}

func (e *ActionError) Unwrap() error { return e.Err }

// StatusError is a non-success HTTP response.
type StatusError struct {
	Method string
	URL    string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.Code)
}
