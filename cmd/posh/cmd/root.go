package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Exit codes, grounded on the teacher's cmd/devcmd/main.go constant
// block.
const (
	ExitSuccess          = 0
	ExitInvalidArguments = 1
	ExitIOError          = 2
	ExitParseError       = 3
)

var (
	debug  bool
	logger *slog.Logger

	rootCmd = &cobra.Command{
		Use:          "posh",
		Short:        "posh",
		SilenceUsage: true,
		Long:         "Debug/inspection CLI for the posh shell-grammar core: tokenize, lex, parse, and expand shell input one stage at a time.",
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable structured debug logging")
	// Rebuild the logger once flags are parsed, so --debug takes effect.
	rootCmd.PersistentPreRun = func(*cobra.Command, []string) { logger = newLogger(debug) }
}

// Execute runs the command tree and returns the process exit code,
// rather than calling os.Exit itself, so main stays a one-liner.
func Execute() int {
	logger = newLogger(debug)
	if err := rootCmd.Execute(); err != nil {
		if ec, ok := err.(exitError); ok {
			return ec.code
		}
		return ExitInvalidArguments
	}
	return ExitSuccess
}

// newLogger returns a logger that is always safe to call: it discards
// everything unless enabled (--debug), and emits structured fields
// rather than formatted strings.
func newLogger(enabled bool) *slog.Logger {
	if !enabled {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// exitError lets a RunE return a specific process exit code while still
// satisfying the error interface cobra expects.
type exitError struct {
	code int
	err  error
}

func (e exitError) Error() string { return e.err.Error() }

func ioError(err error) error {
	return exitError{code: ExitIOError, err: fmt.Errorf("io: %w", err)}
}

func parseError(err error) error {
	return exitError{code: ExitParseError, err: fmt.Errorf("parse: %w", err)}
}

// readInput reads path, or stdin when path is "-".
func readInput(path string) (string, error) {
	if path == "-" {
		b, err := io.ReadAll(os.Stdin)
		return string(b), err
	}
	b, err := os.ReadFile(path)
	return string(b), err
}
