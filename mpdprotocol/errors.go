package mpdprotocol

import (
	"errors"
	"fmt"
	"strconv"
)

// Sentinel errors for the transport.
var (
	// ErrTimeout indicates an exchange hit its deadline before the reply
	// was complete.
	ErrTimeout = errors.New("command timed out")

	// ErrNotConnected indicates an operation was attempted without a connection.
	ErrNotConnected = errors.New("not connected")

	// ErrAlreadyConnected indicates connect was called while already connected.
	ErrAlreadyConnected = errors.New("already connected")

	// ErrConnClosed indicates a write on a stream that was already closed.
	ErrConnClosed = errors.New("connection closed")

	// ErrProtocolViolation indicates a second command was issued while an
	// exchange was still in flight on the same connection.
	ErrProtocolViolation = errors.New("protocol violation: exchange already in flight")

	// ErrNotAck indicates ParseAck was given a line without the ACK marker.
	ErrNotAck = errors.New("not an ACK line")

	// ErrMalformedAck indicates an ACK line that does not follow the
	// "ACK [code@index] {command} message" layout.
	ErrMalformedAck = errors.New("malformed ACK line")
)

// ConnectionError represents a failure to establish the connection.
type ConnectionError struct {
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("connection failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("connection failed: %s", e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ConnectionError) Unwrap() error {
	return e.Cause
}

// NewConnectionError creates a new connection error.
func NewConnectionError(message string, cause error) error {
	return &ConnectionError{Message: message, Cause: cause}
}

// TransportError reports a stream failure after an exchange began. The
// bytes accumulated before the failure are not returned.
type TransportError struct {
	Cause error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %v", e.Cause)
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

// WriteError reports a failed write of a command to the stream.
type WriteError struct {
	Cause error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write failed: %v", e.Cause)
}

func (e *WriteError) Unwrap() error {
	return e.Cause
}

// AckError is a parsed server error reply:
//
//	ACK [<Code>@<Index>] {<Command>} <Message>
type AckError struct {
	Code    int
	Index   int    // position of the failing command inside a command list
	Command string // empty when the server could not identify the command
	Message string
}

func (e *AckError) Error() string {
	return "ACK [" + strconv.Itoa(e.Code) + "@" + strconv.Itoa(e.Index) + "] {" + e.Command + "} " + e.Message
}
