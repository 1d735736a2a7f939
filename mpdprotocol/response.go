package mpdprotocol

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// ResponseKind classifies a complete reply.
type ResponseKind int

const (
	// ResponseIncomplete indicates neither marker was found, e.g. the
	// reply ended because the server closed the stream.
	ResponseIncomplete ResponseKind = iota
	// ResponseOK indicates a reply ending in the success marker.
	ResponseOK
	// ResponseAck indicates a reply carrying an ACK line.
	ResponseAck
)

func (k ResponseKind) String() string {
	switch k {
	case ResponseOK:
		return "ok"
	case ResponseAck:
		return "ack"
	default:
		return "incomplete"
	}
}

// Classify reports what kind of reply b is. An ACK line anywhere in the
// reply wins over a trailing OK, since command lists can fail after some
// output has been produced.
func Classify(b []byte) ResponseKind {
	if _, ok := findAckLine(b); ok {
		return ResponseAck
	}
	if bytes.HasSuffix(b, []byte(OKSuffix)) {
		return ResponseOK
	}
	return ResponseIncomplete
}

// FindAck returns the parsed ACK line of a reply, if it has one.
func FindAck(b []byte) (*AckError, bool) {
	line, ok := findAckLine(b)
	if !ok {
		return nil, false
	}
	ack, err := ParseAck(line)
	if err != nil {
		return nil, false
	}
	return ack, true
}

func findAckLine(b []byte) (string, bool) {
	for _, line := range strings.SplitAfter(string(b), "\n") {
		if strings.HasPrefix(line, AckPrefix) {
			return line, true
		}
	}
	return "", false
}

// ParseAck parses an error reply line:
//
//	ACK [50@0] {play} No such song
func ParseAck(line string) (*AckError, error) {
	line = strings.TrimSuffix(line, "\n")
	if !strings.HasPrefix(line, AckPrefix) {
		return nil, ErrNotAck
	}
	rest := line[len(AckPrefix):]

	if !strings.HasPrefix(rest, "[") {
		return nil, fmt.Errorf("%w: missing error code in %q", ErrMalformedAck, line)
	}
	end := strings.IndexByte(rest, ']')
	if end < 0 {
		return nil, fmt.Errorf("%w: unterminated error code in %q", ErrMalformedAck, line)
	}
	codePart, indexPart, found := strings.Cut(rest[1:end], "@")
	if !found {
		return nil, fmt.Errorf("%w: missing command index in %q", ErrMalformedAck, line)
	}
	code, err := strconv.Atoi(codePart)
	if err != nil {
		return nil, fmt.Errorf("%w: bad error code %q", ErrMalformedAck, codePart)
	}
	index, err := strconv.Atoi(indexPart)
	if err != nil {
		return nil, fmt.Errorf("%w: bad command index %q", ErrMalformedAck, indexPart)
	}

	ack := &AckError{Code: code, Index: index}
	rest = strings.TrimPrefix(rest[end+1:], " ")
	if strings.HasPrefix(rest, "{") {
		closing := strings.IndexByte(rest, '}')
		if closing < 0 {
			return nil, fmt.Errorf("%w: unterminated command name in %q", ErrMalformedAck, line)
		}
		ack.Command = rest[1:closing]
		rest = strings.TrimPrefix(rest[closing+1:], " ")
	}
	ack.Message = rest
	return ack, nil
}

// SplitGreeting separates the "OK MPD <version>" banner from the rest of
// a reply. The banner arrives as soon as the server accepts a connection,
// so it ends up at the front of the first reply read on that connection.
func SplitGreeting(b []byte) (version string, rest []byte, ok bool) {
	if !bytes.HasPrefix(b, []byte(GreetingPrefix)) {
		return "", b, false
	}
	nl := bytes.IndexByte(b, '\n')
	if nl < 0 {
		return "", b, false
	}
	return string(b[len(GreetingPrefix):nl]), b[nl+1:], true
}
