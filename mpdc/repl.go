// =============================================================================
// repl.go - REPL Loop
// =============================================================================
//
// Reads lines from the line editor, translates them (translate.go) and either
// handles them locally or sends them to the server through the command
// runner (server.go). The loop ends on .quit, .exit or end of input.
//
// A failed command never ends the REPL: connection and transport errors are
// printed to stderr and the next line is read.
//
// =============================================================================

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/mpdwire/mpdwire/mpdprotocol"
)

// sender sends one command and returns the raw reply. commandRunner is the
// production implementation.
type sender interface {
	run(ctx context.Context, command string, immediate bool, match mpdprotocol.MatchMode) ([]byte, error)
}

// runREPL runs the main REPL loop until the user quits or input ends.
func runREPL(ctx context.Context, s sender, editor lineReader, st replState, out, errOut io.Writer) {
	for {
		line, err := editor.GetLine(st.prompt())
		if err != nil {
			// EOF (Ctrl-D) ends the session cleanly; anything else is
			// reported first.
			if err != io.EOF {
				fmt.Fprintf(errOut, "Error: %v\n", err)
			}
			fmt.Fprintln(out)
			return
		}

		act, err := translateInput(line, &st)
		if err != nil {
			fmt.Fprintf(errOut, "Error: %v\n", err)
			continue
		}

		switch act.kind {
		case actionNone:
			continue
		case actionQuit:
			return
		case actionHelp:
			printHelp(out, errOut, act.topic)
		case actionMessage:
			fmt.Fprintln(out, act.message)
		case actionSend:
			sendAndPrint(ctx, s, act.command, act.immediate, st, out, errOut)
		}
	}
}

// sendAndPrint runs one command and prints its reply. It reports whether
// the server accepted the command.
func sendAndPrint(ctx context.Context, s sender, command string, immediate bool, st replState, out, errOut io.Writer) bool {
	reply, err := s.run(ctx, command, immediate, st.match)
	if err != nil {
		fmt.Fprintf(errOut, "Error: %v\n", err)
		return false
	}

	stdout, stderr, err := formatReply(reply, st.raw)
	if err != nil {
		fmt.Fprintf(errOut, "Error: %v\n", err)
		return false
	}
	fmt.Fprint(out, stdout)
	fmt.Fprint(errOut, stderr)
	return mpdprotocol.Classify(reply) != mpdprotocol.ResponseAck
}
