// =============================================================================
// server.go - MPD Server Round Trips and Reply Formatting
// =============================================================================
//
// The transport closes the connection once a reply is complete, so every
// command gets its own connection:
//
//	dial -> send command -> read until OK / ACK / first chunk -> close
//
// The greeting the server sends on connect ("OK MPD 0.23.5\n") therefore
// arrives at the start of every reply and is stripped before printing.
//
// =============================================================================

package main

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mpdwire/mpdwire/mpdprotocol"
)

// commandRunner sends single commands to one server.
type commandRunner struct {
	host    string
	port    uint16
	timeout time.Duration
	logger  *zap.Logger
}

func newCommandRunner(cfg *Config, logger *zap.Logger) *commandRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &commandRunner{
		host:    cfg.Host,
		port:    cfg.Port,
		timeout: cfg.Timeout,
		logger:  logger,
	}
}

// addr returns the server address in host:port form.
func (r *commandRunner) addr() string {
	return mpdprotocol.Address(r.host, r.port)
}

// run dials the server, sends command and returns the raw reply. The
// configured timeout covers both the dial and the exchange.
func (r *commandRunner) run(ctx context.Context, command string, immediate bool, match mpdprotocol.MatchMode) ([]byte, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	client := mpdprotocol.NewClient()
	client.SetLogger(r.logger)
	client.SetMatchMode(match)

	if err := client.ConnectWithContext(ctx, r.host, r.port); err != nil {
		return nil, err
	}
	defer client.Close()

	return client.SendBinaryCommandWithContext(ctx, command, immediate)
}

// formatReply splits a raw reply into the text for stdout and the text for
// stderr.
//
// In raw mode the reply is returned untouched. Otherwise the greeting and
// the final "OK" line are dropped, and ACK lines become "Error:" lines on
// stderr.
func formatReply(reply []byte, raw bool) (stdout, stderr string, err error) {
	if raw {
		return string(reply), "", nil
	}

	_, rest, _ := mpdprotocol.SplitGreeting(reply)
	text, err := mpdprotocol.DecodeText(rest)
	if err != nil {
		return "", "", err
	}

	var out, errOut strings.Builder
	lines := strings.SplitAfter(text, "\n")
	for i, line := range lines {
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, mpdprotocol.AckPrefix) {
			errOut.WriteString("Error: " + describeAck(line) + "\n")
			continue
		}
		if line == mpdprotocol.OKSuffix && isLastLine(lines, i) {
			continue
		}
		out.WriteString(line)
	}

	// A reply cut short by immediate mode or a closed stream may end
	// mid-line.
	if s := out.String(); s != "" && !strings.HasSuffix(s, "\n") {
		out.WriteString("\n")
	}
	return out.String(), errOut.String(), nil
}

// describeAck renders an ACK line for humans, falling back to the line
// itself when it does not parse.
func describeAck(line string) string {
	ack, err := mpdprotocol.ParseAck(line)
	if err != nil {
		return strings.TrimSuffix(line, "\n")
	}

	msg := ack.Message
	if ack.Command != "" {
		msg = ack.Command + ": " + msg
	}
	return msg + " (code " + strconv.Itoa(ack.Code) + ")"
}

func isLastLine(lines []string, i int) bool {
	for _, l := range lines[i+1:] {
		if l != "" {
			return false
		}
	}
	return true
}

// homeDir returns the current user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home
}
