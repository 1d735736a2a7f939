// =============================================================================
// translate.go - Input Translation (REPL Line -> Action)
// =============================================================================
//
// Every REPL line becomes an action:
//
//	""               -> nothing
//	".quit"          -> leave the REPL
//	".help match"    -> print help
//	".immediate on"  -> change a session setting
//	"!idle"          -> send "idle\n" once in immediate mode
//	"status"         -> send "status\n" with the session settings
//
// Dot-commands never reach the server. Everything else is a protocol
// command and gets its terminating newline appended here.
//
// =============================================================================

package main

import (
	"fmt"
	"strings"

	"github.com/mpdwire/mpdwire/mpdprotocol"
)

// replState holds the settings the user can change from the REPL.
type replState struct {
	addr      string
	immediate bool
	match     mpdprotocol.MatchMode
	raw       bool
}

// prompt returns the display prompt for the current settings.
func (s replState) prompt() string {
	if s.immediate {
		return "mpd!> "
	}
	return "mpd> "
}

// actionKind says what the REPL should do with a line.
type actionKind int

const (
	// actionNone ignores the line.
	actionNone actionKind = iota
	// actionQuit leaves the REPL.
	actionQuit
	// actionHelp prints help for action.topic.
	actionHelp
	// actionMessage prints action.message.
	actionMessage
	// actionSend sends action.command to the server.
	actionSend
)

// action is the result of translating one REPL line.
type action struct {
	kind actionKind

	// command is the wire text for actionSend, newline included.
	command string

	// immediate is the immediate flag for actionSend.
	immediate bool

	// topic is the help topic for actionHelp.
	topic string

	// message is the text for actionMessage.
	message string
}

// translateInput turns a REPL line into an action. Dot-commands that change
// settings update st.
func translateInput(line string, st *replState) (action, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return action{kind: actionNone}, nil
	}

	if strings.HasPrefix(trimmed, ".") {
		return translateDotCommand(trimmed, st)
	}

	if rest, ok := strings.CutPrefix(trimmed, "!"); ok {
		rest = strings.TrimSpace(rest)
		if rest == "" {
			return action{}, fmt.Errorf("'!' must be followed by a command")
		}
		return action{kind: actionSend, command: rest + mpdprotocol.CommandTerminator, immediate: true}, nil
	}

	return action{kind: actionSend, command: trimmed + mpdprotocol.CommandTerminator, immediate: st.immediate}, nil
}

func translateDotCommand(trimmed string, st *replState) (action, error) {
	name, arg, _ := strings.Cut(trimmed, " ")
	name = strings.ToLower(name)
	arg = strings.TrimSpace(arg)

	switch name {
	case ".quit", ".exit":
		return action{kind: actionQuit}, nil

	case ".help":
		return action{kind: actionHelp, topic: arg}, nil

	case ".immediate":
		on, err := parseToggle(arg, st.immediate)
		if err != nil {
			return action{}, fmt.Errorf(".immediate: %w", err)
		}
		st.immediate = on
		return action{kind: actionMessage, message: "Immediate mode " + onOff(on)}, nil

	case ".match":
		if arg == "" {
			return action{kind: actionMessage, message: "Match mode is " + st.match.String()}, nil
		}
		mode, err := mpdprotocol.ParseMatchMode(arg)
		if err != nil {
			return action{}, err
		}
		st.match = mode
		return action{kind: actionMessage, message: "Match mode set to " + mode.String()}, nil

	case ".raw":
		on, err := parseToggle(arg, st.raw)
		if err != nil {
			return action{}, fmt.Errorf(".raw: %w", err)
		}
		st.raw = on
		return action{kind: actionMessage, message: "Raw output " + onOff(on)}, nil

	case ".status":
		return action{kind: actionMessage, message: fmt.Sprintf("server=%s immediate=%s match=%s raw=%s",
			st.addr, onOff(st.immediate), st.match, onOff(st.raw))}, nil
	}

	return action{}, fmt.Errorf("unknown command '%s'. Type .help to see available commands", name)
}

// parseToggle parses "on"/"off". An empty argument flips current.
func parseToggle(arg string, current bool) (bool, error) {
	switch strings.ToLower(arg) {
	case "":
		return !current, nil
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", arg)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
