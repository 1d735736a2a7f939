package mpdprotocol

import (
	"net"
	"strconv"
	"time"
)

// Protocol constants.
const (
	// AckPrefix marks an error reply when a chunk starts with it.
	AckPrefix = "ACK "

	// OKSuffix marks a successful reply when a chunk ends with it.
	OKSuffix = "OK\n"

	// GreetingPrefix is the start of the banner line sent by the server
	// as soon as a connection is accepted.
	GreetingPrefix = "OK MPD "

	// CommandTerminator ends every command line. Callers include it in the
	// command string themselves; the engine never appends it.
	CommandTerminator = "\n"

	// DefaultHost is the host used when none is configured.
	DefaultHost = "localhost"

	// DefaultPort is the standard MPD TCP port.
	DefaultPort uint16 = 6600

	// ConnectionTimeout is the timeout for establishing connections.
	ConnectionTimeout = 5 * time.Second

	// ReadChunkSize is the size of the buffer used by the connection reader.
	// Each successful read is delivered as one data event.
	ReadChunkSize = 32 * 1024
)

// Address joins host and port into a dialable TCP address.
func Address(host string, port uint16) string {
	return net.JoinHostPort(host, strconv.Itoa(int(port)))
}
