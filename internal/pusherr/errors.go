// Package pusherr holds the error types the facade throws synchronously.
// Transport, server and authorization failures are never returned as errors;
// per the wire protocol they are delivered to listener callbacks instead.
package pusherr

import "fmt"

// ArgumentError is thrown synchronously for invalid call-site inputs: a
// null/empty channel name, a reserved event name, a duplicate subscription,
// a connection listener bound to states with no listener, and so on.
type ArgumentError struct {
	Msg string
}

func (e *ArgumentError) Error() string { return e.Msg }

// NewArgumentError builds an ArgumentError with a formatted message.
func NewArgumentError(format string, args ...interface{}) *ArgumentError {
	return &ArgumentError{Msg: fmt.Sprintf(format, args...)}
}

// StateError is thrown synchronously when an operation is attempted in a
// state that forbids it: unsubscribing while not connected, subscribing to
// a private/presence channel with no Authorizer configured.
type StateError struct {
	Msg string
}

func (e *StateError) Error() string { return e.Msg }

// NewStateError builds a StateError with a formatted message.
func NewStateError(format string, args ...interface{}) *StateError {
	return &StateError{Msg: fmt.Sprintf(format, args...)}
}
