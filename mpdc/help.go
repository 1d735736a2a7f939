// =============================================================================
// help.go - REPL Help System
// =============================================================================
//
// ".help" lists the dot-commands and how protocol lines are sent.
// ".help <topic>" prints the detailed text for one dot-command.
//
// =============================================================================

package main

// GO CONCEPT: Map Literals for Lookup Tables
// -------------------------------------------
// map[string]string gives a keyed lookup table initialized with a composite
// literal. Lookups use the comma-ok form:
//
//	text, ok := globalHelp[key]
//
// ok is false and text is "" when the key is missing.
import (
	"fmt"
	"io"
	"strings"
)

// printHelp writes the overview, or the detailed text for topic, to w.
// Unknown topics are reported on errOut.
func printHelp(w, errOut io.Writer, topic string) {
	if topic == "" {
		printHelpOverview(w)
		return
	}

	// ".help .match" works the same as ".help match".
	key := strings.TrimPrefix(strings.ToLower(topic), ".")

	if text, ok := globalHelp[key]; ok {
		fmt.Fprintln(w, text)
		return
	}

	fmt.Fprintf(errOut, "Error: No help for '%s'. Type .help to see available commands.\n", topic)
}

func printHelpOverview(w io.Writer) {
	fmt.Fprint(w, `Commands:
  .help [topic]           Show help, or help for one command
  .immediate [on|off]     Finish replies on the first chunk received
  .match chunk|accumulated
                          Look for reply markers per chunk or in the whole reply
  .raw [on|off]           Print replies exactly as received
  .status                 Show the current session settings
  .quit                   Exit the REPL (also .exit, Ctrl-D)

Any other line is sent to the server followed by a newline, e.g.
  status
  playlistinfo
  play 3

Prefix a line with '!' to send it once in immediate mode:
  !idle player

Each command is sent on a fresh connection. Replies ending in "OK" are
printed without the marker; "ACK" errors are printed to stderr.
`)
}

// globalHelp holds the detailed text for each dot-command.
var globalHelp = map[string]string{
	"help": `.help [topic]
  Without a topic, list all commands. With a topic, show detailed help.
  Example: .help match`,

	"immediate": `.immediate [on|off]
  In immediate mode a reply is complete as soon as the first chunk
  arrives, whatever it contains. Use it for commands whose reply does
  not end in OK, or to peek at the start of a long reply. Without an
  argument the setting is toggled.`,

	"match": `.match chunk|accumulated
  chunk        Check each received chunk for "ACK " at the start or
               "OK\n" at the end (default)
  accumulated  Check the whole reply received so far, so a marker split
               across two chunks is still found`,

	"raw": `.raw [on|off]
  Print replies exactly as received, including the server greeting and
  the final OK line. Without an argument the setting is toggled.`,

	"status": `.status
  Show the server address and the current immediate, match and raw
  settings.`,

	"quit": `.quit
  Exit the REPL. Ctrl-D and .exit do the same.`,

	"exit": `.exit
  Same as .quit.`,
}
