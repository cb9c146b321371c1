package host

import (
	"errors"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"strings"
)

// Runner executes one shell command line in a directory
type Runner interface {
	Run(dir, line string) error
}

// ExecError is a command line that could not be started or exited non-zero
type ExecError struct {
	Line     string
	Dir      string
	ExitCode int
	Err      error
}

func (e *ExecError) Error() string {
	if e.ExitCode > 0 {
		return fmt.Sprintf("command exited with status %d: %s", e.ExitCode, e.Line)
	}
	return fmt.Sprintf("command failed: %s: %v", e.Line, e.Err)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

// ShellRunner runs command lines with cmd /C on Windows and /bin/sh -c
// elsewhere. Output goes straight to the given writers.
type ShellRunner struct {
	Stdout io.Writer
	Stderr io.Writer
}

func NewShellRunner(stdout, stderr io.Writer) *ShellRunner {
	return &ShellRunner{Stdout: stdout, Stderr: stderr}
}

func (r *ShellRunner) Run(dir, line string) error {
	if strings.TrimSpace(line) == "" {
		return &ExecError{Line: line, Dir: dir, Err: errors.New("empty command")}
	}

	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.Command("cmd", "/C", line)
	} else {
		cmd = exec.Command("/bin/sh", "-c", line)
	}
	cmd.Dir = dir
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	if err := cmd.Run(); err != nil {
		xe := &ExecError{Line: line, Dir: dir, Err: err}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			xe.ExitCode = exitErr.ExitCode()
		}
		return xe
	}
	return nil
}

func execLookPath(file string) (string, error) {
	return exec.LookPath(file)
}
