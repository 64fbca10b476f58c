package adb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"
	"time"

	"github.com/phone-agent/launcher/internal/logging"
	"github.com/phone-agent/launcher/internal/runenv"
)

// Error taxonomy for the device probe. Both are recovered by the caller and
// folded into the readiness report; neither aborts a run.
var (
	// ErrTransportUnavailable means the adb binary could not be resolved at
	// all through the runtime context.
	ErrTransportUnavailable = errors.New("device transport unavailable")
	// ErrTransportFailed means the binary ran but the enumeration call
	// errored.
	ErrTransportFailed = errors.New("device transport error")
)

const defaultBinary = "adb"

// Client wraps the Android Debug Bridge binary for the one call the
// launcher needs: enumerating attached devices. The binary is resolved
// through whichever runtime context the caller supplies, so an activated
// virtual environment can shadow the system adb.
type Client struct {
	binary string
	logger logging.Logger
	run    func(ctx context.Context, env *runenv.Context, binary string) (stdout, stderr string, err error)
}

// Option configures a Client.
type Option func(*Client)

// WithBinary overrides the adb executable, either a bare name resolved via
// the runtime context's PATH or an explicit path.
func WithBinary(binary string) Option {
	return func(c *Client) {
		if binary != "" {
			c.binary = binary
		}
	}
}

// WithLogger attaches a logger for probe diagnostics.
func WithLogger(logger logging.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient builds a Client with the conventional binary name.
func NewClient(opts ...Option) *Client {
	c := &Client{
		binary: defaultBinary,
		logger: &logging.NoOpLogger{},
		run:    runDevices,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Devices invokes the enumeration command exactly once and returns whatever
// the transport reported. Failures come back as wrapped sentinel errors next
// to an empty DeviceList; the probe never retries and never interprets
// device states.
func (c *Client) Devices(ctx context.Context, env *runenv.Context) (DeviceList, error) {
	if env == nil {
		env = runenv.New("")
	}

	started := time.Now()
	stdout, stderr, err := c.run(ctx, env, c.binary)
	elapsed := time.Since(started)

	if err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			wrapped := fmt.Errorf("%w: %v", ErrTransportUnavailable, err)
			c.logger.Warn(ctx, "adb binary not found",
				logging.Field("binary", c.binary),
				logging.Field("elapsed", elapsed))
			return DeviceList{}, wrapped
		}
		wrapped := enumerationError(err, stderr)
		c.logger.Warn(ctx, "device enumeration failed",
			logging.Field("binary", c.binary),
			logging.Field("elapsed", elapsed),
			logging.Field("reason", wrapped))
		return DeviceList{}, wrapped
	}

	list := DeviceList{Raw: stdout, Devices: ParseDevices(stdout)}
	c.logger.Debug(ctx, "device enumeration finished",
		logging.Field("devices", len(list.Devices)),
		logging.Field("elapsed", elapsed))
	return list, nil
}

func runDevices(ctx context.Context, env *runenv.Context, binary string) (string, string, error) {
	cmd, err := env.Command(ctx, binary, "devices")
	if err != nil {
		return "", "", err
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err = cmd.Run()
	return stdout.String(), stderr.String(), err
}

// enumerationError folds the interesting part of stderr into the wrapped
// error so the report can show why the transport call failed.
func enumerationError(err error, stderr string) error {
	detail := strings.TrimSpace(stderr)
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if detail != "" {
			return fmt.Errorf("%w: adb devices exited with status %d (%s)", ErrTransportFailed, exitErr.ExitCode(), detail)
		}
		return fmt.Errorf("%w: adb devices exited with status %d", ErrTransportFailed, exitErr.ExitCode())
	}
	if detail != "" {
		return fmt.Errorf("%w: %v (%s)", ErrTransportFailed, err, detail)
	}
	return fmt.Errorf("%w: %v", ErrTransportFailed, err)
}
