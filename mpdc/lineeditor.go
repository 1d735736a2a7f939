// =============================================================================
// lineeditor.go - Line Editor with Dual-Mode Operation
// =============================================================================
//
// The REPL reads input through a LineEditor that picks its input method from
// the kind of stdin it was given:
//
//   - Interactive mode: ergochat/readline provides Emacs keybindings,
//     persistent history and Ctrl-R history search.
//   - Non-interactive mode: bufio.Scanner reads piped input line by line and
//     the prompt is printed manually, so scripts such as
//     `printf 'status\ncurrentsong\n' | mpdc` work.
//
// History is stored at ~/.mpdc_history with a 500-entry limit.
//
// =============================================================================

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ergochat/readline"
	"golang.org/x/term"
)

const (
	// historyFileName is the name of the history file in the user's home
	// directory.
	historyFileName = ".mpdc_history"

	// historySize is the maximum number of history entries to retain.
	historySize = 500
)

// lineReader is what the REPL needs from a line editor. Tests substitute
// an editor reading from a string.
type lineReader interface {
	GetLine(prompt string) (string, error)
}

// LineEditor wraps line editing with dual-mode operation.
type LineEditor struct {
	// interactive is true when stdin is a TTY and false when input is piped.
	interactive bool

	// rl is the readline instance used in interactive mode, nil otherwise.
	rl *readline.Instance

	// scanner reads lines in non-interactive mode, nil otherwise.
	scanner *bufio.Scanner

	// promptOut receives the prompt in non-interactive mode.
	promptOut io.Writer
}

// NewLineEditor creates a new LineEditor with automatic mode detection.
//
// Under Emacs (INSIDE_EMACS is set) the editor always runs non-interactive
// because Emacs provides its own line editing.
func NewLineEditor() *LineEditor {
	// GO CONCEPT: TTY Detection
	// -------------------------
	// golang.org/x/term.IsTerminal() checks if a file descriptor is connected
	// to a terminal. os.Stdin.Fd() returns a uintptr, IsTerminal takes an int.
	isInteractive := term.IsTerminal(int(os.Stdin.Fd())) &&
		os.Getenv("INSIDE_EMACS") == ""

	if !isInteractive {
		return newLineEditorFrom(os.Stdin, os.Stdout)
	}

	rl, err := readline.NewFromConfig(&readline.Config{
		HistoryFile:  filepath.Join(homeDir(), historyFileName),
		HistoryLimit: historySize,

		// Lines are saved by hand in getInteractiveLine so empty input
		// never reaches the history file.
		DisableAutoSaveHistory: true,

		// The prompt changes with the immediate setting and is set
		// before every read.
		Prompt: "",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: readline init failed (%v), using basic input\n", err)
		return newLineEditorFrom(os.Stdin, os.Stdout)
	}

	return &LineEditor{
		interactive: true,
		rl:          rl,
	}
}

// newLineEditorFrom creates a non-interactive editor reading from r and
// printing prompts to promptOut.
func newLineEditorFrom(r io.Reader, promptOut io.Writer) *LineEditor {
	return &LineEditor{
		interactive: false,
		scanner:     bufio.NewScanner(r),
		promptOut:   promptOut,
	}
}

// GetLine reads a line of input with the given prompt.
//
// Returns ("", io.EOF) when the user presses Ctrl-D or Ctrl-C, or when
// piped input is exhausted.
func (le *LineEditor) GetLine(prompt string) (string, error) {
	if le.interactive {
		return le.getInteractiveLine(prompt)
	}
	return le.getNonInteractiveLine(prompt)
}

func (le *LineEditor) getInteractiveLine(prompt string) (string, error) {
	le.rl.SetPrompt(prompt)

	line, err := le.rl.Readline()
	if err != nil {
		if err == readline.ErrInterrupt {
			return "", io.EOF
		}
		return "", err
	}

	if trimmed := strings.TrimSpace(line); trimmed != "" {
		le.rl.SaveToHistory(trimmed)
	}
	return line, nil
}

func (le *LineEditor) getNonInteractiveLine(prompt string) (string, error) {
	// The prompt still matters for Emacs comint, which matches on it to
	// find where user input begins.
	if le.promptOut != nil {
		fmt.Fprint(le.promptOut, prompt)
	}

	if !le.scanner.Scan() {
		if err := le.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return le.scanner.Text(), nil
}

// Close saves history and releases the readline instance. It is a no-op in
// non-interactive mode and safe to call more than once.
func (le *LineEditor) Close() {
	if le.rl != nil {
		le.rl.Close()
		le.rl = nil
	}
}

// IsInteractive reports whether the editor is running with full line
// editing.
func (le *LineEditor) IsInteractive() bool {
	return le.interactive
}
