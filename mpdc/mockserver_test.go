// =============================================================================
// mockserver_test.go - Mock MPD Server for Testing
// =============================================================================
//
// GO CONCEPT: Test Helpers (Shared Test Infrastructure)
// -----------------------------------------------------
// Files ending in _test.go are only compiled during testing, and every test
// file in the package can use the helpers defined here. The mock listens on
// a loopback TCP port, sends the MPD greeting to every new connection and
// answers one command line at a time.
//
// =============================================================================

package main

import (
	"bufio"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

const (
	mockGreeting = "OK MPD 0.23.5\n"
	replyDelay   = 10 * time.Millisecond
)

// mockServer is a lightweight MPD stand-in.
type mockServer struct {
	listener net.Listener

	host string
	port uint16

	// handler returns the reply for one command (without its newline). An
	// empty reply leaves the client waiting.
	handler func(cmd string) string

	mu          sync.Mutex
	connections []net.Conn
	commands    []string

	wg sync.WaitGroup
}

func startMockServer(t *testing.T, handler func(cmd string) string) *mockServer {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to create mock server listener: %v", err)
	}
	if handler == nil {
		handler = defaultMockHandler
	}

	addr := listener.Addr().(*net.TCPAddr)
	ms := &mockServer{
		listener: listener,
		host:     addr.IP.String(),
		port:     uint16(addr.Port),
		handler:  handler,
	}

	ms.wg.Add(1)
	go ms.acceptLoop()

	t.Cleanup(ms.stop)
	return ms
}

// portString returns the port for use in --port flags.
func (ms *mockServer) portString() string {
	return strconv.Itoa(int(ms.port))
}

func (ms *mockServer) acceptLoop() {
	defer ms.wg.Done()

	for {
		conn, err := ms.listener.Accept()
		if err != nil {
			return
		}

		ms.mu.Lock()
		ms.connections = append(ms.connections, conn)
		ms.mu.Unlock()

		ms.wg.Add(1)
		go ms.handleConnection(conn)
	}
}

func (ms *mockServer) handleConnection(conn net.Conn) {
	defer ms.wg.Done()

	if _, err := conn.Write([]byte(mockGreeting)); err != nil {
		return
	}

	reader := bufio.NewReader(conn)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		cmd := strings.TrimSuffix(line, "\n")

		ms.mu.Lock()
		ms.commands = append(ms.commands, cmd)
		ms.mu.Unlock()

		if reply := ms.handler(cmd); reply != "" {
			// Keeps the greeting in its own read on the client side, so
			// an ACK reply still starts a chunk.
			time.Sleep(replyDelay)
			if _, err := conn.Write([]byte(reply)); err != nil {
				return
			}
		}
	}
}

// received returns the commands seen so far, in order.
func (ms *mockServer) received() []string {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return append([]string(nil), ms.commands...)
}

func (ms *mockServer) stop() {
	ms.listener.Close()

	ms.mu.Lock()
	for _, conn := range ms.connections {
		conn.Close()
	}
	ms.connections = nil
	ms.mu.Unlock()

	ms.wg.Wait()
}

// defaultMockHandler answers a handful of commands the way MPD does.
func defaultMockHandler(cmd string) string {
	switch {
	case cmd == "ping":
		return "OK\n"
	case cmd == "status":
		return "volume: 40\nstate: play\nOK\n"
	case cmd == "currentsong":
		return "file: björk/jóga.flac\nTitle: Jóga\nOK\n"
	case strings.HasPrefix(cmd, "play "):
		return "ACK [50@0] {play} No such song\n"
	case cmd == "idle":
		return ""
	default:
		name, _, _ := strings.Cut(cmd, " ")
		return "ACK [5@0] {} unknown command \"" + name + "\"\n"
	}
}
