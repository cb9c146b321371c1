// Package hosttest provides an in-memory host for tests: a MemMapFs and a
// runner that records command lines instead of executing them.
package hosttest

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/ThandieOps/muda/internal/host"
	"github.com/ThandieOps/muda/internal/model"
	"github.com/spf13/afero"
)

// Call is one recorded command line
type Call struct {
	Dir  string
	Line string
}

// Runner records every command. A command fails when it contains any of
// the substrings in FailOn.
type Runner struct {
	mu     sync.Mutex
	calls  []Call
	FailOn []string
}

func (r *Runner) Run(dir, line string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Dir: dir, Line: line})
	for _, s := range r.FailOn {
		if strings.Contains(line, s) {
			return &host.ExecError{Line: line, Dir: dir, ExitCode: 1}
		}
	}
	return nil
}

// Calls returns the commands recorded so far
func (r *Runner) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Lines returns only the command lines recorded so far
func (r *Runner) Lines() []string {
	var out []string
	for _, c := range r.Calls() {
		out = append(out, c.Line)
	}
	return out
}

// New returns a host rooted at root on an empty MemMapFs with the given
// platform and toolchains available.
func New(root string, os model.OS, compilers ...model.Compiler) (*host.Host, *Runner) {
	fs := afero.NewMemMapFs()
	_ = fs.MkdirAll(root, 0o755)
	r := &Runner{}
	h := host.New(fs, r, root)
	h.OS = os
	h.ConfigDir = "/config"

	found := make(map[string]bool)
	for _, c := range compilers {
		found[strings.ToLower(c.String())] = true
	}
	h.LookPath = func(file string) (string, error) {
		if found[file] {
			return "/usr/bin/" + file, nil
		}
		return "", afero.ErrFileNotFound
	}
	return h, r
}

// WriteFile creates path with its parents. It panics on error since the
// in-memory filesystem cannot fail.
func WriteFile(h *host.Host, path, data string) {
	if err := h.Fs.MkdirAll(filepath.Dir(h.Abs(path)), 0o755); err != nil {
		panic(err)
	}
	if err := h.WriteFile(path, []byte(data)); err != nil {
		panic(err)
	}
}
