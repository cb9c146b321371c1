package logger

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}

func TestInitTextRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Init(Options{Level: "warn", Writer: &buf}))
	t.Cleanup(func() { _ = Close() })

	Info("hidden")
	Warn("shown", "key", "value")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown key=value")
}

func TestInitJSONToFile(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "muda.log")
	require.NoError(t, Init(Options{Level: "debug", JSON: true, File: path, Writer: &buf}))

	Debug("compiling", "target", "app")
	require.NoError(t, Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"compiling"`)
	assert.Equal(t, buf.String(), string(data))
}

func TestQuietDiscards(t *testing.T) {
	require.NoError(t, Init(Options{Quiet: true}))
	assert.False(t, Get().Enabled(t.Context(), slog.LevelError))
}
