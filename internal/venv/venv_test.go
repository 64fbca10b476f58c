package venv

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/phone-agent/launcher/internal/runenv"
)

func TestActivateSucceeds(t *testing.T) {
	root := t.TempDir()
	venvDir := makeVenv(t, root, DefaultDir)

	base := runenv.New(root).Set("PYTHONHOME", "/opt/python")
	activator := New(base, "")
	require.Equal(t, StateInactive, activator.State())

	act := activator.Activate(context.Background())

	wantBin, wantPython := interpreterLayout(venvDir)

	require.Equal(t, StateActive, act.State)
	require.Equal(t, StateActive, activator.State())
	require.NoError(t, act.Err)
	require.Equal(t, venvDir, act.Dir)
	require.Equal(t, wantPython, act.Python)
	require.Equal(t, "3.12.1", act.PythonVersion)
	require.NotZero(t, act.Elapsed)

	require.Equal(t, wantBin, act.Env.Path()[0])

	virtualEnv, ok := act.Env.Get("VIRTUAL_ENV")
	require.True(t, ok)
	require.Equal(t, venvDir, virtualEnv)

	_, ok = act.Env.Get("PYTHONHOME")
	require.False(t, ok, "activation must drop PYTHONHOME")

	_, ok = base.Get("PYTHONHOME")
	require.True(t, ok, "base context must stay untouched")
}

func TestActivateResolvesCustomDir(t *testing.T) {
	root := t.TempDir()
	venvDir := makeVenv(t, root, "env-autoglm")

	act := New(runenv.New(root), "env-autoglm").Activate(context.Background())

	require.Equal(t, StateActive, act.State)
	require.Equal(t, venvDir, act.Dir)
}

func TestActivateMissingEnvironment(t *testing.T) {
	root := t.TempDir()
	base := runenv.New(root)

	act := New(base, "").Activate(context.Background())

	require.Equal(t, StateActivationFailed, act.State)
	require.True(t, errors.Is(act.Err, ErrEnvironmentUnavailable))
	require.Contains(t, act.Err.Error(), "no virtual environment")
	require.Same(t, base, act.Env, "failure must fall back to the base context")
	require.Empty(t, act.Python)
}

func TestActivateMissingMarker(t *testing.T) {
	root := t.TempDir()
	venvDir := filepath.Join(root, DefaultDir)
	binDir, python := interpreterLayout(venvDir)
	require.NoError(t, os.MkdirAll(binDir, 0o755))
	require.NoError(t, os.WriteFile(python, []byte("#!/bin/sh\n"), 0o755))

	act := New(runenv.New(root), "").Activate(context.Background())

	require.Equal(t, StateActivationFailed, act.State)
	require.Contains(t, act.Err.Error(), "pyvenv.cfg")
}

func TestActivateMissingInterpreter(t *testing.T) {
	root := t.TempDir()
	venvDir := filepath.Join(root, DefaultDir)
	require.NoError(t, os.MkdirAll(venvDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(venvDir, "pyvenv.cfg"), []byte("version = 3.12.1\n"), 0o644))

	act := New(runenv.New(root), "").Activate(context.Background())

	require.Equal(t, StateActivationFailed, act.State)
	require.Contains(t, act.Err.Error(), "no python interpreter")
}

func TestActivateRejectsNonExecutableInterpreter(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("executable-bit semantics are not applicable on windows")
	}

	root := t.TempDir()
	venvDir := filepath.Join(root, DefaultDir)
	require.NoError(t, os.MkdirAll(filepath.Join(venvDir, "bin"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(venvDir, "pyvenv.cfg"), []byte("version = 3.12.1\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(venvDir, "bin", "python"), []byte("#!/bin/sh\n"), 0o644))

	act := New(runenv.New(root), "").Activate(context.Background())

	require.Equal(t, StateActivationFailed, act.State)
	require.Contains(t, act.Err.Error(), "not executable")
}

func TestActivateLatchesFirstOutcome(t *testing.T) {
	root := t.TempDir()
	venvDir := makeVenv(t, root, DefaultDir)

	activator := New(runenv.New(root), "")
	first := activator.Activate(context.Background())
	require.Equal(t, StateActive, first.State)

	// The environment disappearing after activation must not flip the
	// recorded outcome; the attempt happens exactly once.
	require.NoError(t, os.RemoveAll(venvDir))

	second := activator.Activate(context.Background())
	require.Equal(t, first, second)
	require.Equal(t, StateActive, activator.State())
}

func TestPythonVersionReadsEitherKey(t *testing.T) {
	dir := t.TempDir()

	marker := filepath.Join(dir, "pyvenv.cfg")
	require.NoError(t, os.WriteFile(marker, []byte("home = /usr/bin\nversion_info = 3.13.0\n"), 0o644))
	require.Equal(t, "3.13.0", pythonVersion(marker))

	require.NoError(t, os.WriteFile(marker, []byte("home = /usr/bin\n"), 0o644))
	require.Empty(t, pythonVersion(marker))
}

func makeVenv(t *testing.T, root, name string) string {
	t.Helper()
	venvDir := filepath.Join(root, name)
	binDir, python := interpreterLayout(venvDir)
	require.NoError(t, os.MkdirAll(binDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(venvDir, "pyvenv.cfg"),
		[]byte("home = /usr/bin\ninclude-system-site-packages = false\nversion = 3.12.1\n"), 0o644))
	require.NoError(t, os.WriteFile(python, []byte("#!/bin/sh\nexit 0\n"), 0o755))
	return venvDir
}
