package venv

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/phone-agent/launcher/internal/logging"
	"github.com/phone-agent/launcher/internal/runenv"
)

// DefaultDir is the conventional location of the project's virtual
// environment, relative to the launcher's working directory.
const DefaultDir = ".venv"

// ErrEnvironmentUnavailable marks every activation failure. Callers are
// expected to recover it into their own reporting rather than abort.
var ErrEnvironmentUnavailable = errors.New("virtual environment unavailable")

// State tracks the activation lifecycle. It moves from StateInactive through
// StateActivating to exactly one terminal value and is never reverted within
// a run.
type State string

const (
	StateInactive         State = "inactive"
	StateActivating       State = "activating"
	StateActive           State = "active"
	StateActivationFailed State = "activation_failed"
)

// Activation is the outcome of a single activation attempt.
type Activation struct {
	// State is the terminal state the attempt reached.
	State State
	// Dir is the absolute virtual environment directory once resolution got
	// that far, empty otherwise.
	Dir string
	// Python is the interpreter the environment provides. Only set when the
	// activation succeeded.
	Python string
	// PythonVersion is read from the environment's pyvenv.cfg when present.
	PythonVersion string
	// Env is the runtime context later steps should resolve executables
	// through: the activated overlay on success, the unmodified base context
	// on failure.
	Env *runenv.Context
	// Err wraps ErrEnvironmentUnavailable when the attempt failed.
	Err error
	// Elapsed is the wall-clock duration of the attempt.
	Elapsed time.Duration
}

// Activator locates a previously provisioned virtual environment and derives
// the runtime context that makes it effective. It never creates or repairs
// an environment; a missing one is reported, not fixed.
type Activator struct {
	base   *runenv.Context
	dir    string
	logger logging.Logger

	state  State
	done   bool
	result Activation
}

// Option configures an Activator.
type Option func(*Activator)

// WithLogger attaches a logger for activation diagnostics.
func WithLogger(logger logging.Logger) Option {
	return func(a *Activator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// New builds an Activator for the environment at dir, resolved against the
// base context's root when relative. An empty dir selects DefaultDir.
func New(base *runenv.Context, dir string, opts ...Option) *Activator {
	if dir == "" {
		dir = DefaultDir
	}
	a := &Activator{
		base:   base,
		dir:    dir,
		logger: &logging.NoOpLogger{},
		state:  StateInactive,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// State reports the current lifecycle state.
func (a *Activator) State() State {
	return a.state
}

// Activate performs the single activation attempt. Repeat calls return the
// recorded outcome without touching the filesystem again.
func (a *Activator) Activate(ctx context.Context) Activation {
	if a.done {
		return a.result
	}
	a.state = StateActivating

	started := time.Now()
	result := a.activate(ctx)
	result.Elapsed = time.Since(started)

	a.state = result.State
	a.result = result
	a.done = true
	return result
}

func (a *Activator) activate(ctx context.Context) Activation {
	dir := a.dir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(a.base.Root(), dir)
	}
	a.logger.Debug(ctx, "activating virtual environment", logging.Field("dir", dir))

	fail := func(err error) Activation {
		a.logger.Warn(ctx, "virtual environment activation failed", logging.Field("reason", err))
		return Activation{State: StateActivationFailed, Dir: dir, Env: a.base, Err: err}
	}

	info, err := os.Stat(dir)
	if err != nil {
		return fail(fmt.Errorf("%w: no virtual environment at %s", ErrEnvironmentUnavailable, dir))
	}
	if !info.IsDir() {
		return fail(fmt.Errorf("%w: %s is not a directory", ErrEnvironmentUnavailable, dir))
	}

	marker := filepath.Join(dir, "pyvenv.cfg")
	if markerInfo, err := os.Stat(marker); err != nil || !markerInfo.Mode().IsRegular() {
		return fail(fmt.Errorf("%w: %s is missing its pyvenv.cfg marker", ErrEnvironmentUnavailable, dir))
	}

	binDir, python := interpreterLayout(dir)
	if err := validateInterpreter(python); err != nil {
		return fail(err)
	}

	env := a.base.
		Prepend(binDir).
		Set("VIRTUAL_ENV", dir).
		Unset("PYTHONHOME")

	version := pythonVersion(marker)
	a.logger.Debug(ctx, "virtual environment active",
		logging.Field("python", python),
		logging.Field("version", version))

	return Activation{
		State:         StateActive,
		Dir:           dir,
		Python:        python,
		PythonVersion: version,
		Env:           env,
	}
}

// interpreterLayout returns the scripts directory and interpreter path for a
// virtual environment, following the layout venv itself creates per platform.
func interpreterLayout(dir string) (binDir, python string) {
	if runtime.GOOS == "windows" {
		binDir = filepath.Join(dir, "Scripts")
		return binDir, filepath.Join(binDir, "python.exe")
	}
	binDir = filepath.Join(dir, "bin")
	return binDir, filepath.Join(binDir, "python")
}

func validateInterpreter(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: no python interpreter at %s", ErrEnvironmentUnavailable, path)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: interpreter %s is not a regular file", ErrEnvironmentUnavailable, path)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm()&0o111 == 0 {
		return fmt.Errorf("%w: interpreter %s is not executable", ErrEnvironmentUnavailable, path)
	}
	return nil
}

// pythonVersion extracts the interpreter version recorded in pyvenv.cfg.
// Older interpreters write `version`, newer ones `version_info`; either is
// accepted. Absence is not an error, the report just omits the version.
func pythonVersion(marker string) string {
	data, err := os.ReadFile(marker)
	if err != nil {
		return ""
	}
	for _, line := range strings.Split(string(data), "\n") {
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		switch strings.TrimSpace(key) {
		case "version", "version_info":
			return strings.TrimSpace(value)
		}
	}
	return ""
}
