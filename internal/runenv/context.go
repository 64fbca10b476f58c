package runenv

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
)

// Context is an explicit, immutable snapshot of the environment a subprocess
// should run with: a working directory, an ordered PATH, and a set of
// environment variables. Steps that resolve or execute external tools receive
// a Context value instead of mutating the process environment, so an
// activation that fails can never leave half-applied state behind.
type Context struct {
	root     string
	path     []string
	vars     map[string]string
	lookPath func(string) (string, error)
}

// New constructs a Context rooted at the provided directory, seeded from the
// live process environment. Commands are resolved against the snapshot's own
// PATH entries.
func New(root string) *Context {
	c := &Context{
		root: root,
		vars: make(map[string]string),
	}
	for _, entry := range os.Environ() {
		key, value, ok := strings.Cut(entry, "=")
		if !ok || key == "" {
			continue
		}
		if strings.EqualFold(key, "PATH") {
			c.path = splitPathList(value)
			continue
		}
		c.vars[key] = value
	}
	return c
}

// NewWithLookPath allows tests to override the executable lookup so callers
// can be exercised without relying on tools being present on the host PATH.
func NewWithLookPath(root string, lookPath func(string) (string, error)) *Context {
	c := New(root)
	if lookPath != nil {
		c.lookPath = lookPath
	}
	return c
}

// Root returns the working directory commands run in.
func (c *Context) Root() string {
	return c.root
}

// Path returns a copy of the ordered PATH entries.
func (c *Context) Path() []string {
	out := make([]string, len(c.path))
	copy(out, c.path)
	return out
}

// Get reports the value of an environment variable held by the snapshot.
func (c *Context) Get(key string) (string, bool) {
	if strings.EqualFold(key, "PATH") {
		return strings.Join(c.path, string(os.PathListSeparator)), true
	}
	value, ok := c.vars[key]
	return value, ok
}

// Prepend returns a derived Context whose PATH starts with dir. The receiver
// is never modified.
func (c *Context) Prepend(dir string) *Context {
	derived := c.clone()
	derived.path = append([]string{dir}, derived.path...)
	return derived
}

// Set returns a derived Context with the variable applied. Setting PATH
// replaces the ordered entries wholesale.
func (c *Context) Set(key, value string) *Context {
	derived := c.clone()
	if strings.EqualFold(key, "PATH") {
		derived.path = splitPathList(value)
		return derived
	}
	derived.vars[key] = value
	return derived
}

// Unset returns a derived Context without the named variable.
func (c *Context) Unset(key string) *Context {
	derived := c.clone()
	delete(derived.vars, key)
	return derived
}

// Environ materializes the snapshot in the KEY=value form expected by
// exec.Cmd. Entries are sorted so output is stable across runs.
func (c *Context) Environ() []string {
	entries := make([]string, 0, len(c.vars)+1)
	for key, value := range c.vars {
		entries = append(entries, key+"="+value)
	}
	entries = append(entries, "PATH="+strings.Join(c.path, string(os.PathListSeparator)))
	sort.Strings(entries)
	return entries
}

// LookPath resolves an executable through the snapshot's PATH. Names that
// contain a path separator are checked directly, mirroring exec.LookPath.
func (c *Context) LookPath(name string) (string, error) {
	if c.lookPath != nil {
		return c.lookPath(name)
	}
	if name == "" {
		return "", &exec.Error{Name: name, Err: exec.ErrNotFound}
	}
	if strings.ContainsRune(name, os.PathSeparator) || strings.ContainsRune(name, '/') {
		if found, err := findExecutable(name); err == nil {
			return found, nil
		}
		return "", &exec.Error{Name: name, Err: exec.ErrNotFound}
	}
	for _, dir := range c.path {
		if dir == "" {
			continue
		}
		if found, err := findExecutable(filepath.Join(dir, name)); err == nil {
			return found, nil
		}
	}
	return "", &exec.Error{Name: name, Err: exec.ErrNotFound}
}

// Command resolves name through the snapshot and returns an exec.Cmd wired
// with the snapshot's environment and working directory.
func (c *Context) Command(ctx context.Context, name string, args ...string) (*exec.Cmd, error) {
	path, err := c.LookPath(name)
	if err != nil {
		return nil, err
	}
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Env = c.Environ()
	if c.root != "" {
		cmd.Dir = c.root
	}
	return cmd, nil
}

func (c *Context) clone() *Context {
	derived := &Context{
		root:     c.root,
		path:     make([]string, len(c.path)),
		vars:     make(map[string]string, len(c.vars)),
		lookPath: c.lookPath,
	}
	copy(derived.path, c.path)
	for key, value := range c.vars {
		derived.vars[key] = value
	}
	return derived
}

// findExecutable accepts a candidate path when it names a regular file the
// current user could plausibly execute. Windows carries no execute bit, so
// only the file shape is checked there; an .exe sibling is tried for names
// given without an extension.
func findExecutable(path string) (string, error) {
	candidates := []string{path}
	if runtime.GOOS == "windows" && filepath.Ext(path) == "" {
		candidates = append(candidates, path+".exe")
	}
	for _, candidate := range candidates {
		info, err := os.Stat(candidate)
		if err != nil {
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}
		if runtime.GOOS != "windows" && info.Mode().Perm()&0o111 == 0 {
			return "", fmt.Errorf("%s: %w", candidate, fs.ErrPermission)
		}
		return candidate, nil
	}
	return "", fs.ErrNotExist
}

func splitPathList(value string) []string {
	if value == "" {
		return nil
	}
	return filepath.SplitList(value)
}
