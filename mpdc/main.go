// =============================================================================
// main.go - mpdc Entry Point
// =============================================================================
//
// mpdc is a small command-line client for MPD-style servers. It sends raw
// protocol commands over TCP and prints the replies.
//
// Usage:
//
//	mpdc                          Start the REPL against localhost:6600
//	mpdc status                   Send one command and print the reply
//	mpdc --host music.local idle  Use another server
//	mpdc --immediate idle         Print the first chunk of the reply
//	mpdc --print-config           Show the effective configuration
//
// With a command the reply is printed once and the exit status reports the
// outcome: 0 for OK, 1 for an ACK or a transport error, 2 for bad usage.
//
// =============================================================================

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/mpdwire/mpdwire/mpdprotocol"
)

// =============================================================================
// Version Information
// =============================================================================

const (
	// version is the current version of mpdc.
	version = "0.1.0"

	// appName is the application name.
	appName = "mpdc"
)

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// fullTitle returns the application name with version.
func fullTitle() string {
	return fmt.Sprintf("%s v%s", appName, version)
}

// welcomeBanner returns the banner displayed when the REPL starts.
func welcomeBanner(addr string) string {
	return fmt.Sprintf(`%s - MPD protocol client
Server: %s

Type '.help' for available commands.
Type '.quit' to exit.
`, fullTitle(), addr)
}

// =============================================================================
// Command-Line Arguments
// =============================================================================

// arguments holds the parsed command-line arguments. Settings that also
// live in the config file stay in flags and are merged by loadConfig.
type arguments struct {
	flags *pflag.FlagSet

	// immediate sends the one-shot command in immediate mode.
	immediate bool

	printConfig bool
	showHelp    bool
	showVersion bool

	// command holds the positional words, joined into one command line.
	command []string
}

// GO CONCEPT: Flag Sets
// ---------------------
// pflag.NewFlagSet builds an isolated set of GNU-style flags (--host,
// -h). ContinueOnError makes Parse return errors instead of exiting, so
// parseArguments can be tested. Flags stop at the first positional word
// (SetInterspersed(false)), which keeps "mpdc find artist --x" intact.

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet(appName, pflag.ContinueOnError)
	fs.SortFlags = false
	fs.SetInterspersed(false)
	fs.SetOutput(io.Discard)

	d := defaultConfig()
	fs.String("host", d.Host, "server host name or address")
	fs.Uint16("port", d.Port, "server TCP port")
	fs.String("config", "", "config file (default ~/.config/mpdc/config.yaml)")
	fs.Duration("timeout", d.Timeout, "per-command timeout, e.g. 5s (0 waits forever)")
	fs.String("match", d.Match, "reply marker matching: chunk or accumulated")
	fs.Bool("immediate", false, "finish the reply on the first chunk received")
	fs.Bool("raw", d.Raw, "print replies exactly as received")
	fs.String("log-level", d.Log.Level, "log level: debug, info, warn, error")
	fs.String("log-file", "", "write logs to this file instead of stderr")
	fs.Bool("print-config", false, "print the effective configuration and exit")
	fs.BoolP("help", "h", false, "show this help")
	fs.BoolP("version", "v", false, "show version")
	return fs
}

// parseArguments parses argv (without the program name).
func parseArguments(argv []string) (arguments, error) {
	fs := newFlagSet()
	if err := fs.Parse(argv); err != nil {
		return arguments{}, err
	}

	args := arguments{flags: fs, command: fs.Args()}
	args.immediate, _ = fs.GetBool("immediate")
	args.printConfig, _ = fs.GetBool("print-config")
	args.showHelp, _ = fs.GetBool("help")
	args.showVersion, _ = fs.GetBool("version")
	return args, nil
}

// =============================================================================
// Help and Usage
// =============================================================================

// printUsage prints usage information to w.
func printUsage(w io.Writer) {
	fmt.Fprintf(w, `USAGE: %s [options] [command...]

Without a command, starts an interactive REPL. With a command, sends it
once and prints the reply.

OPTIONS:
%s
ENVIRONMENT:
  MPD_HOST, MPD_PORT      Server address (MPDC_HOST, MPDC_PORT take precedence)
  MPDC_TIMEOUT, MPDC_MATCH, MPDC_LOG_LEVEL, ...
                          Any config key, upper-cased with MPDC_ prefix

EXAMPLES:
  %[1]s status
  %[1]s --host 192.168.1.20 currentsong
  %[1]s --timeout 30s idle player
  printf 'status\nstats\n' | %[1]s
`, appName, newFlagSet().FlagUsages())
}

// printVersion prints version information to w.
func printVersion(w io.Writer) {
	fmt.Fprintln(w, fullTitle())
}

// =============================================================================
// Signal Handling
// =============================================================================

// setupSignalHandler runs cleanup and exits on SIGINT or SIGTERM.
//
// The buffered channel lets signal delivery proceed even before the
// goroutine is ready to receive.
func setupSignalHandler(cleanup func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println()
		cleanup()
		os.Exit(exitOK)
	}()
}

// =============================================================================
// Main
// =============================================================================

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run is main without the process exit, returning the exit code.
func run(argv []string, stdout, stderr io.Writer) int {
	args, err := parseArguments(argv)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printUsage(stdout)
			return exitOK
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		printUsage(stderr)
		return exitUsage
	}

	if args.showHelp {
		printUsage(stdout)
		return exitOK
	}
	if args.showVersion {
		printVersion(stdout)
		return exitOK
	}

	cfg, err := loadConfig(args.flags)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}

	if args.printConfig {
		out, err := cfg.YAML()
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitFailure
		}
		fmt.Fprint(stdout, out)
		return exitOK
	}

	logger, err := setupLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}
	defer logger.Sync()

	runner := newCommandRunner(cfg, logger)
	st := replState{addr: runner.addr(), match: cfg.MatchMode(), raw: cfg.Raw}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if len(args.command) > 0 {
		command := strings.Join(args.command, " ") + mpdprotocol.CommandTerminator
		logger.Debug("one-shot command", zap.String("server", runner.addr()), zap.Bool("immediate", args.immediate))
		if !sendAndPrint(ctx, runner, command, args.immediate, st, stdout, stderr) {
			return exitFailure
		}
		return exitOK
	}

	editor := NewLineEditor()
	cleanup := func() {
		cancel()
		editor.Close()
		logger.Sync()
	}
	setupSignalHandler(cleanup)

	if editor.IsInteractive() {
		fmt.Fprint(stdout, welcomeBanner(runner.addr()))
		fmt.Fprintln(stdout)
	}

	runREPL(ctx, runner, editor, st, stdout, stderr)
	cleanup()
	return exitOK
}
