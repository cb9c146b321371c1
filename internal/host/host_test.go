package host

import (
	"bytes"
	"errors"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/ThandieOps/muda/internal/model"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memHost(t *testing.T) *Host {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/work/app", 0o755))
	require.NoError(t, afero.WriteFile(fs, "/work/build.muda", []byte("@version: 1.0.0\n"), 0o644))
	return New(fs, nil, "/work")
}

func TestChdirTracksWorkingDirectory(t *testing.T) {
	h := memHost(t)
	assert.Equal(t, "/work", h.Getwd())

	require.NoError(t, h.Chdir("app"))
	assert.Equal(t, "/work/app", h.Getwd())

	require.NoError(t, h.Chdir(".."))
	assert.Equal(t, "/work", h.Getwd())

	assert.Error(t, h.Chdir("missing"))
	assert.Error(t, h.Chdir("build.muda"))
	assert.Equal(t, "/work", h.Getwd())
}

func TestExists(t *testing.T) {
	h := memHost(t)
	assert.Equal(t, PathDir, h.Exists("app"))
	assert.Equal(t, PathFile, h.Exists("build.muda"))
	assert.Equal(t, PathMissing, h.Exists("nope"))
	assert.Equal(t, PathFile, h.Exists("/work/build.muda"))
}

func TestReadWriteRelativeToWorkingDirectory(t *testing.T) {
	h := memHost(t)
	require.NoError(t, h.Chdir("app"))
	require.NoError(t, h.MkdirAll("bin/int"))
	require.NoError(t, h.WriteFile("build.muda", []byte("x")))

	data, err := afero.ReadFile(h.Fs, "/work/app/build.muda")
	require.NoError(t, err)
	assert.Equal(t, "x", string(data))
	assert.Equal(t, PathDir, h.Exists("/work/app/bin/int"))

	entries, err := h.ReadDir(".")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "bin", entries[0].Name())
}

func TestIsHidden(t *testing.T) {
	h := memHost(t)
	assert.True(t, h.IsHidden(".", ".git"))
	assert.True(t, h.IsHidden(".", ".muda"))
	assert.False(t, h.IsHidden(".", "app"))
}

func TestCompilers(t *testing.T) {
	h := memHost(t)
	h.LookPath = func(file string) (string, error) {
		if file == "gcc" || file == "cl" {
			return "/bin/" + file, nil
		}
		return "", errors.New("not found")
	}

	h.OS = model.OSLinux
	set := h.Compilers()
	assert.True(t, set.Has(model.CompilerGCC))
	assert.False(t, set.Has(model.CompilerCL))
	assert.False(t, set.Has(model.CompilerClang))

	h.OS = model.OSWindows
	c, ok := h.Compilers().Preferred()
	require.True(t, ok)
	assert.Equal(t, model.CompilerCL, c)
}

type recordRunner struct {
	dir, line string
}

func (r *recordRunner) Run(dir, line string) error {
	r.dir, r.line = dir, line
	return nil
}

func TestExecuteUsesWorkingDirectory(t *testing.T) {
	h := memHost(t)
	r := &recordRunner{}
	h.Runner = r
	require.NoError(t, h.Chdir("app"))
	require.NoError(t, h.Execute("gcc main.c"))
	assert.Equal(t, "/work/app", r.dir)
	assert.Equal(t, "gcc main.c", r.line)
}

func TestShellRunner(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses /bin/sh")
	}
	var out bytes.Buffer
	r := NewShellRunner(&out, &out)
	dir := t.TempDir()

	require.NoError(t, r.Run(dir, "echo hello > out.txt && cat out.txt"))
	assert.Equal(t, "hello\n", out.String())
	assert.FileExists(t, filepath.Join(dir, "out.txt"))

	err := r.Run(dir, "exit 3")
	var xe *ExecError
	require.ErrorAs(t, err, &xe)
	assert.Equal(t, 3, xe.ExitCode)
	assert.Contains(t, xe.Error(), "status 3")

	assert.Error(t, r.Run(dir, "   "))
}
