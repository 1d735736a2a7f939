package mpdprotocol

import (
	"bufio"
	"net"
	"strings"
	"sync"
	"testing"
)

// mockServer is a TCP server that answers one command line at a time.
//
// The handler receives each command without its line terminator and writes
// whatever reply the test needs directly to the connection. It may also
// stay silent or close the connection.
type mockServer struct {
	listener net.Listener

	host string
	port uint16

	// greeting is written as soon as a connection is accepted.
	greeting string

	handler func(cmd string, conn net.Conn)

	mu sync.Mutex

	connections []net.Conn
	commands    []string

	wg sync.WaitGroup
}

func startMockServer(t *testing.T, greeting string, handler func(cmd string, conn net.Conn)) *mockServer {
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
		greeting: greeting,
		handler:  handler,
	}

	ms.wg.Add(1)
	go ms.acceptLoop()

	t.Cleanup(func() {
		ms.stop()
	})

	return ms
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

	if ms.greeting != "" {
		if _, err := conn.Write([]byte(ms.greeting)); err != nil {
			return
		}
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

		ms.handler(cmd, conn)
	}
}

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
func defaultMockHandler(cmd string, conn net.Conn) {
	switch {
	case cmd == "ping":
		conn.Write([]byte("OK\n"))
	case cmd == "status":
		conn.Write([]byte("volume: 40\nrepeat: 0\nstate: play\nOK\n"))
	case cmd == "currentsong":
		conn.Write([]byte("file: björk/jóga.flac\nTitle: Jóga\nOK\n"))
	case strings.HasPrefix(cmd, "play "):
		conn.Write([]byte("ACK [50@0] {play} No such song\n"))
	default:
		name, _, _ := strings.Cut(cmd, " ")
		conn.Write([]byte("ACK [5@0] {} unknown command \"" + name + "\"\n"))
	}
}
