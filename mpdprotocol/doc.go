// Package mpdprotocol provides the client transport for the MPD text
// protocol over TCP.
//
// # Protocol Overview
//
// Commands are lines of text. Replies have no length prefix; a reply is
// complete when the server signals success or failure with a marker:
//
//	Request (client -> server):  <command> [arguments...]\n
//	Success response:            <key: value lines...>OK\n
//	Error response:              ACK [<code>@<index>] {<command>} <message>\n
//	Greeting (on connect):       OK MPD <version>\n
//
// Example Session:
//
//	SRV: OK MPD 0.23.5
//	CLI: status
//	SRV: volume: 40
//	SRV: state: play
//	SRV: OK
//
// # Termination
//
// Each read from the socket is one chunk. By default the markers are
// checked per chunk: a chunk starting with "ACK " or ending with "OK\n"
// completes the reply, and a marker split across two reads is only seen
// once a read carries it whole. MatchAccumulated checks the whole reply so
// far instead. Immediate commands complete on the first chunk, whatever it
// contains.
//
// Completing a reply force-closes the connection; the reply is returned
// once the stream reports its end. A server that closes the connection on
// its own also completes the reply.
//
// # Basic Usage
//
//	client, err := mpdprotocol.Connect(ctx, "localhost", mpdprotocol.DefaultPort)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	reply, err := client.SendCommand("status\n", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Print(reply)
//
// # Errors
//
// Dial failures are *ConnectionError, stream failures during an exchange
// are *TransportError, writes to a closed stream are *WriteError, and a
// second command while one is in flight returns ErrProtocolViolation.
// Server ACK replies are returned as data; ParseAck and FindAck decode them.
//
// # Thread Safety
//
// The Client type is safe for concurrent use from multiple goroutines, but
// only one exchange runs at a time.
package mpdprotocol
