package mpdprotocol

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
)

// EventKind identifies what a connection Event reports.
type EventKind int

const (
	// EventData carries one chunk of bytes as returned by a single read.
	EventData EventKind = iota
	// EventEnded reports the end of the stream, either because the server
	// closed it or because ForceClose was called.
	EventEnded
	// EventError reports a read failure that was not caused by ForceClose.
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventData:
		return "data"
	case EventEnded:
		return "ended"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is one notification from a connection's event feed.
type Event struct {
	Kind EventKind
	Data []byte // for EventData; owned by the receiver
	Err  error  // for EventError
}

// Stream is the capability set an exchange needs from a connection.
type Stream interface {
	// Write sends bytes downstream.
	Write(p []byte) error
	// Events returns the feed of data, ended and error notifications.
	// The channel is closed after the terminal event.
	Events() <-chan Event
	// ForceClose terminates the stream. The feed then reports the end.
	ForceClose() error
}

// Conn is a Stream over a net.Conn.
//
// A single reader goroutine turns reads into events, so events for one Conn
// are delivered serially and in arrival order. Nothing is read ahead of the
// consumer: the reader blocks until each event is taken.
type Conn struct {
	nc     net.Conn
	events chan Event

	// done is closed by ForceClose so a reader blocked on an event nobody
	// will take can exit.
	done     chan struct{}
	doneOnce sync.Once

	closing atomic.Bool
	ended   atomic.Bool
}

// Dial establishes a TCP connection to host:port.
func Dial(ctx context.Context, host string, port uint16) (*Conn, error) {
	connectCtx, cancel := context.WithTimeout(ctx, ConnectionTimeout)
	defer cancel()

	addr := Address(host, port)
	var d net.Dialer
	nc, err := d.DialContext(connectCtx, "tcp", addr)
	if err != nil {
		return nil, NewConnectionError("failed to dial "+addr, err)
	}
	return NewConn(nc), nil
}

// NewConn wraps an established connection and starts its reader.
func NewConn(nc net.Conn) *Conn {
	c := &Conn{
		nc:     nc,
		events: make(chan Event),
		done:   make(chan struct{}),
	}
	go c.readLoop()
	return c
}

// Events returns the connection's event feed.
func (c *Conn) Events() <-chan Event {
	return c.events
}

// Write sends p to the server. Writing after the stream was closed by
// either side fails with a *WriteError wrapping ErrConnClosed.
func (c *Conn) Write(p []byte) error {
	if c.closing.Load() || c.ended.Load() {
		return &WriteError{Cause: ErrConnClosed}
	}
	if _, err := c.nc.Write(p); err != nil {
		if errors.Is(err, net.ErrClosed) {
			return &WriteError{Cause: ErrConnClosed}
		}
		return &WriteError{Cause: err}
	}
	return nil
}

// ForceClose closes the underlying connection immediately. Calling it again
// has no effect.
func (c *Conn) ForceClose() error {
	if c.closing.Swap(true) {
		return nil
	}
	c.doneOnce.Do(func() { close(c.done) })
	return c.nc.Close()
}

// Closed reports whether the stream was closed by either side.
func (c *Conn) Closed() bool {
	return c.closing.Load() || c.ended.Load()
}

// RemoteAddr returns the server address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.nc.RemoteAddr()
}

func (c *Conn) readLoop() {
	defer close(c.events)

	buf := make([]byte, ReadChunkSize)
	for {
		n, err := c.nc.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			if !c.emit(Event{Kind: EventData, Data: chunk}) {
				return
			}
		}
		if err != nil {
			c.ended.Store(true)
			if errors.Is(err, io.EOF) || c.closing.Load() {
				c.emit(Event{Kind: EventEnded})
			} else {
				c.emit(Event{Kind: EventError, Err: err})
			}
			return
		}
	}
}

// emit hands ev to the consumer. It gives up once the connection was force
// closed and nobody is receiving; the closed channel then reads as ended.
func (c *Conn) emit(ev Event) bool {
	select {
	case c.events <- ev:
		return true
	case <-c.done:
		select {
		case c.events <- ev:
			return true
		default:
			return false
		}
	}
}
