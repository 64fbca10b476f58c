// Package cli wires the readiness launcher to a command line entry point.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"golang.org/x/term"

	"github.com/phone-agent/launcher/internal/launch"
	"github.com/phone-agent/launcher/internal/logging"
	"github.com/phone-agent/launcher/internal/report"
)

// Run executes the readiness launcher using the provided CLI arguments.
// It returns a POSIX-style exit code. Degraded readiness (a broken
// environment, no devices, no adb) still exits 0 because the findings land
// in the report; only a bad invocation or a report that cannot be written
// is a failure.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	if err := godotenv.Load(); err != nil {
		// A missing .env file is fine, but other errors should be surfaced to help with debugging.
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			fmt.Fprintf(stderr, "failed to load .env: %v\n", err)
			return 1
		}
	}

	flagSet := flag.NewFlagSet("phone-agent-launch", flag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.Usage = func() {
		fmt.Fprintln(stderr, "usage: phone-agent-launch")
		fmt.Fprintln(stderr, "the launcher takes no arguments; configure it through PHONE_AGENT_* environment variables")
	}
	if err := flagSet.Parse(args); err != nil {
		return 2
	}
	if flagSet.NArg() > 0 {
		fmt.Fprintf(stderr, "unexpected argument: %q\n", flagSet.Arg(0))
		flagSet.Usage()
		return 2
	}

	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(stderr, "invalid configuration: %v\n", err)
		return 1
	}

	logger := logging.NewStdLogger(logging.ParseLevel(cfg.LogLevel), stderr)
	tty, width := terminalGeometry(stdout)

	seq, err := launch.New(launch.Options{
		VenvDir: cfg.VenvDir,
		ADBPath: cfg.ADBPath,
		Out:     stdout,
		Logger:  logger,
		Report: report.RendererOptions{
			Width:   width,
			TTY:     tty,
			NoColor: cfg.NoColor,
			Logger:  logger,
			Service: report.ModelConfig{
				BaseURL: cfg.BaseURL,
				Model:   cfg.Model,
				APIKey:  cfg.APIKey,
			},
		},
	})
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	if _, err := seq.Run(ctx); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

// terminalGeometry reports whether out is an interactive terminal and, when
// it is, the terminal's current width.
func terminalGeometry(out io.Writer) (tty bool, width int) {
	f, ok := out.(*os.File)
	if !ok {
		return false, 0
	}
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return false, 0
	}
	if w, _, err := term.GetSize(fd); err == nil && w > 0 {
		return true, w
	}
	return true, 0
}
