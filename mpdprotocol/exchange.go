package mpdprotocol

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// MatchMode selects what the terminator markers are matched against.
type MatchMode int

const (
	// MatchChunk checks each received chunk on its own. A marker split
	// across two reads is not recognized until a read carries it whole.
	MatchChunk MatchMode = iota
	// MatchAccumulated checks everything received so far on every read,
	// so split markers are recognized as soon as they are complete.
	MatchAccumulated
)

func (m MatchMode) String() string {
	switch m {
	case MatchChunk:
		return "chunk"
	case MatchAccumulated:
		return "accumulated"
	default:
		return fmt.Sprintf("MatchMode(%d)", int(m))
	}
}

// ParseMatchMode parses "chunk" or "accumulated".
func ParseMatchMode(s string) (MatchMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "chunk", "":
		return MatchChunk, nil
	case "accumulated", "buffer":
		return MatchAccumulated, nil
	default:
		return MatchChunk, fmt.Errorf("unknown match mode %q", s)
	}
}

// terminator records which rule ended an exchange.
type terminator int

const (
	terminatedNone terminator = iota
	terminatedImmediate
	terminatedAck
	terminatedOK
)

func (t terminator) String() string {
	switch t {
	case terminatedImmediate:
		return "immediate"
	case terminatedAck:
		return "ack"
	case terminatedOK:
		return "ok"
	default:
		return "stream-end"
	}
}

// terminationFor applies the end-of-reply rules to decoded text.
// The ACK check runs first; either rule is sufficient.
func terminationFor(text string, immediate bool) terminator {
	if immediate {
		return terminatedImmediate
	}
	if strings.HasPrefix(text, AckPrefix) {
		return terminatedAck
	}
	if strings.HasSuffix(text, OKSuffix) {
		return terminatedOK
	}
	return terminatedNone
}

type exchangeState int

const (
	statePending exchangeState = iota
	stateResolved
	stateRejected
)

// exchange is the state of one command round trip. It settles exactly
// once; events arriving after that are ignored.
type exchange struct {
	buf       []byte
	immediate bool
	mode      MatchMode

	state          exchangeState
	closeRequested bool
	terminatedBy   terminator

	result []byte
	err    error
}

func newExchange(immediate bool, mode MatchMode) *exchange {
	return &exchange{immediate: immediate, mode: mode}
}

// onData appends chunk and reports whether the stream should now be
// closed. It returns true at most once per exchange.
func (x *exchange) onData(chunk []byte) bool {
	if x.state != statePending {
		return false
	}
	x.buf = concat(x.buf, chunk)
	if x.closeRequested {
		return false
	}

	subject := chunk
	if x.mode == MatchAccumulated {
		subject = x.buf
	}
	t := terminationFor(decodeLenient(subject), x.immediate)
	if t == terminatedNone {
		return false
	}
	x.closeRequested = true
	x.terminatedBy = t
	return true
}

func (x *exchange) onEnded() bool {
	if x.state != statePending {
		return false
	}
	x.state = stateResolved
	x.result = x.buf
	x.buf = nil
	if x.result == nil {
		x.result = []byte{}
	}
	return true
}

func (x *exchange) onError(err error) bool {
	if x.state != statePending {
		return false
	}
	x.state = stateRejected
	x.err = &TransportError{Cause: err}
	x.buf = nil
	return true
}

// abort rejects the exchange with err as is.
func (x *exchange) abort(err error) bool {
	if x.state != statePending {
		return false
	}
	x.state = stateRejected
	x.err = err
	x.buf = nil
	return true
}

// concat returns a followed by b. The result may share a's storage, which
// is safe because the accumulator has a single owner.
func concat(a, b []byte) []byte {
	return append(a, b...)
}

// Execute sends command over s and returns the complete reply.
//
// The command is written unchanged, so it must already carry its line
// terminator. The reply is complete when a chunk starts with "ACK " or ends
// with "OK\n" (or, with immediate set, as soon as any chunk arrives); the
// stream is then force-closed and the reply is returned once the stream
// reports its end. A reply is also returned when the server closes the
// stream on its own.
//
// A stream error before that point returns a *TransportError and no bytes.
// When ctx ends first the stream is closed and the error wraps ErrTimeout
// for deadlines or is ctx.Err() otherwise.
func Execute(ctx context.Context, s Stream, command string, immediate bool, mode MatchMode) ([]byte, error) {
	x, err := execute(ctx, s, command, immediate, mode)
	if err != nil {
		return nil, err
	}
	return x.result, nil
}

// ExecuteText is Execute followed by DecodeText on the reply.
func ExecuteText(ctx context.Context, s Stream, command string, immediate bool, mode MatchMode) (string, error) {
	b, err := Execute(ctx, s, command, immediate, mode)
	if err != nil {
		return "", err
	}
	return DecodeText(b)
}

func execute(ctx context.Context, s Stream, command string, immediate bool, mode MatchMode) (*exchange, error) {
	x := newExchange(immediate, mode)

	if err := s.Write([]byte(command)); err != nil {
		x.abort(err)
		return x, err
	}

	events := s.Events()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				x.onEnded()
				return x, nil
			}
			switch ev.Kind {
			case EventData:
				if x.onData(ev.Data) {
					_ = s.ForceClose()
				}
			case EventEnded:
				x.onEnded()
				return x, nil
			case EventError:
				x.onError(ev.Err)
				return x, x.err
			}

		case <-ctx.Done():
			_ = s.ForceClose()
			err := ctx.Err()
			if errors.Is(err, context.DeadlineExceeded) {
				err = fmt.Errorf("%w: %w", ErrTimeout, err)
			}
			x.abort(err)
			return x, err
		}
	}
}
