// Package host is the build's view of the operating system: a filesystem
// with a tracked working directory, a shell to run command lines in and the
// toolchains found on PATH.
package host

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ThandieOps/muda/internal/model"
	"github.com/spf13/afero"
)

// PathKind is what, if anything, exists at a path
type PathKind int

const (
	PathMissing PathKind = iota
	PathFile
	PathDir
)

// Host bundles the filesystem, the command runner and the working
// directory. The process working directory is never changed.
type Host struct {
	Fs     afero.Fs
	Runner Runner
	OS     model.OS
	// ConfigDir is the per-user configuration directory, empty when unknown
	ConfigDir string
	// LookPath finds executables for compiler detection
	LookPath func(file string) (string, error)

	cwd string
}

// New returns a host over fs with cwd as the working directory
func New(fs afero.Fs, runner Runner, cwd string) *Host {
	return &Host{
		Fs:       fs,
		Runner:   runner,
		OS:       model.HostOS(),
		LookPath: func(string) (string, error) { return "", errors.New("not found") },
		cwd:      filepath.Clean(cwd),
	}
}

// NewOS returns a host backed by the real filesystem and shell, starting in
// the process working directory.
func NewOS() (*Host, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	h := New(afero.NewOsFs(), NewShellRunner(os.Stdout, os.Stderr), cwd)
	h.LookPath = execLookPath
	if dir, err := os.UserConfigDir(); err == nil {
		h.ConfigDir = dir
	}
	return h, nil
}

// Getwd returns the tracked working directory
func (h *Host) Getwd() string {
	return h.cwd
}

// Abs resolves p against the working directory
func (h *Host) Abs(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(h.cwd, p)
}

// Chdir changes the tracked working directory. dir must exist and be a
// directory.
func (h *Host) Chdir(dir string) error {
	abs := h.Abs(dir)
	info, err := h.Fs.Stat(abs)
	if err != nil {
		return fmt.Errorf("chdir %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("chdir %s: not a directory", dir)
	}
	h.cwd = abs
	return nil
}

// Exists reports what is at p
func (h *Host) Exists(p string) PathKind {
	info, err := h.Fs.Stat(h.Abs(p))
	switch {
	case err != nil:
		return PathMissing
	case info.IsDir():
		return PathDir
	default:
		return PathFile
	}
}

func (h *Host) MkdirAll(p string) error {
	return h.Fs.MkdirAll(h.Abs(p), 0o755)
}

func (h *Host) Stat(p string) (os.FileInfo, error) {
	return h.Fs.Stat(h.Abs(p))
}

func (h *Host) ReadFile(p string) ([]byte, error) {
	return afero.ReadFile(h.Fs, h.Abs(p))
}

func (h *Host) WriteFile(p string, data []byte) error {
	return afero.WriteFile(h.Fs, h.Abs(p), data, 0o644)
}

// ReadDir lists p sorted by name
func (h *Host) ReadDir(p string) ([]os.FileInfo, error) {
	return afero.ReadDir(h.Fs, h.Abs(p))
}

// IsHidden reports whether the entry name inside dir is hidden. Dot names
// are hidden everywhere; on Windows the hidden attribute also counts when
// the host is backed by the real filesystem.
func (h *Host) IsHidden(dir, name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	if _, ok := h.Fs.(*afero.OsFs); !ok {
		return false
	}
	return hiddenAttribute(filepath.Join(h.Abs(dir), name))
}

// Execute runs line through the shell in the working directory
func (h *Host) Execute(line string) error {
	return h.Runner.Run(h.cwd, line)
}

// Compilers returns the toolchains whose drivers are on PATH
func (h *Host) Compilers() model.CompilerSet {
	var set model.CompilerSet
	probes := []struct {
		compiler model.Compiler
		driver   string
	}{
		{model.CompilerCL, "cl"},
		{model.CompilerClang, "clang"},
		{model.CompilerGCC, "gcc"},
	}
	for _, p := range probes {
		if p.compiler == model.CompilerCL && h.OS != model.OSWindows {
			continue
		}
		if _, err := h.LookPath(p.driver); err == nil {
			set = set.With(p.compiler)
		}
	}
	return set
}
