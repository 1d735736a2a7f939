package mpdprotocol

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Client is a TCP client for an MPD server.
//
// It owns one connection and runs at most one exchange on it at a time;
// the protocol has no request identifiers, so a command issued while
// another is in flight fails with ErrProtocolViolation instead of being
// interleaved.
//
// An exchange that completes through a terminator marker closes the
// connection. Callers that want to send another command must Close and
// Connect again.
//
// Thread Safety:
// The client uses a mutex to protect its state and is safe for concurrent
// use from multiple goroutines.
type Client struct {
	mu sync.Mutex

	conn       *Conn
	remoteAddr string

	busy atomic.Bool

	logger         *zap.Logger
	matchMode      MatchMode
	commandTimeout time.Duration
}

// NewClient creates a new, unconnected client.
func NewClient() *Client {
	return &Client{
		logger: zap.NewNop(),
	}
}

// NewClientFromConn creates a client over an already established connection.
func NewClientFromConn(nc net.Conn) *Client {
	c := NewClient()
	c.conn = NewConn(nc)
	c.remoteAddr = nc.RemoteAddr().String()
	return c
}

// Connect dials host:port and returns a connected client.
func Connect(ctx context.Context, host string, port uint16) (*Client, error) {
	c := NewClient()
	if err := c.ConnectWithContext(ctx, host, port); err != nil {
		return nil, err
	}
	return c, nil
}

// SetLogger sets the logger used for exchange diagnostics.
func (c *Client) SetLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logger = logger
}

// SetMatchMode selects how terminator markers are detected.
func (c *Client) SetMatchMode(mode MatchMode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.matchMode = mode
}

// SetCommandTimeout sets the deadline applied by SendCommand and
// SendBinaryCommand. Zero, the default, waits indefinitely.
func (c *Client) SetCommandTimeout(timeout time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.commandTimeout = timeout
}

// IsConnected returns true while the client holds a connection that
// neither side has closed.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil && !c.conn.Closed()
}

// RemoteAddr returns the address of the connected server.
// Returns empty string if not connected.
func (c *Client) RemoteAddr() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remoteAddr
}

// Connect connects to the server at host:port.
func (c *Client) Connect(host string, port uint16) error {
	return c.ConnectWithContext(context.Background(), host, port)
}

// ConnectWithContext connects to the server with a context for cancellation.
// A client whose previous connection was closed may connect again.
func (c *Client) ConnectWithContext(ctx context.Context, host string, port uint16) error {
	c.mu.Lock()
	if c.conn != nil && !c.conn.Closed() {
		c.mu.Unlock()
		return ErrAlreadyConnected
	}
	logger := c.logger
	c.mu.Unlock()

	conn, err := Dial(ctx, host, port)
	if err != nil {
		logger.Warn("connect failed", zap.String("addr", Address(host, port)), zap.Error(err))
		return err
	}

	c.mu.Lock()
	if c.conn != nil && !c.conn.Closed() {
		c.mu.Unlock()
		_ = conn.ForceClose()
		return ErrAlreadyConnected
	}
	c.conn = conn
	c.remoteAddr = conn.RemoteAddr().String()
	c.mu.Unlock()

	logger.Debug("connected", zap.String("addr", c.RemoteAddr()))
	return nil
}

// Close force-closes the connection. An exchange still in flight resolves
// with what it has received once the stream reports its end.
func (c *Client) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.remoteAddr = ""
	logger := c.logger
	c.mu.Unlock()

	if conn == nil {
		return nil
	}
	logger.Debug("closing connection")
	return conn.ForceClose()
}

// SendBinaryCommand sends command and returns the raw reply.
// Uses the client's command timeout, if any.
func (c *Client) SendBinaryCommand(command string, immediate bool) ([]byte, error) {
	ctx, cancel := c.commandContext()
	defer cancel()
	return c.SendBinaryCommandWithContext(ctx, command, immediate)
}

// SendBinaryCommandWithContext sends command and returns the raw reply,
// giving up when ctx ends.
func (c *Client) SendBinaryCommandWithContext(ctx context.Context, command string, immediate bool) ([]byte, error) {
	c.mu.Lock()
	conn := c.conn
	mode := c.matchMode
	logger := c.logger
	c.mu.Unlock()

	if conn == nil {
		return nil, ErrNotConnected
	}
	if !c.busy.CompareAndSwap(false, true) {
		return nil, ErrProtocolViolation
	}
	defer c.busy.Store(false)

	log := logger.With(zap.String("exchange_id", uuid.NewString()))
	log.Debug("exchange started",
		zap.Int("command_bytes", len(command)),
		zap.Bool("immediate", immediate),
		zap.Stringer("match", mode))

	x, err := execute(ctx, conn, command, immediate, mode)
	if err != nil {
		log.Warn("exchange failed", zap.Error(err))
		return nil, err
	}

	log.Debug("exchange resolved",
		zap.Int("bytes", len(x.result)),
		zap.Stringer("terminated_by", x.terminatedBy))
	return x.result, nil
}

// SendCommand sends command and returns the reply decoded as text.
// Uses the client's command timeout, if any.
func (c *Client) SendCommand(command string, immediate bool) (string, error) {
	ctx, cancel := c.commandContext()
	defer cancel()
	return c.SendCommandWithContext(ctx, command, immediate)
}

// SendCommandWithContext sends command and returns the reply decoded as
// text, giving up when ctx ends.
func (c *Client) SendCommandWithContext(ctx context.Context, command string, immediate bool) (string, error) {
	b, err := c.SendBinaryCommandWithContext(ctx, command, immediate)
	if err != nil {
		return "", err
	}
	return DecodeText(b)
}

func (c *Client) commandContext() (context.Context, context.CancelFunc) {
	c.mu.Lock()
	timeout := c.commandTimeout
	c.mu.Unlock()

	if timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), timeout)
}
