package tui

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// LogCapture is a slog handler that forwards every record to the TUI as a
// LogMsg before passing it on to the wrapped handler.
type LogCapture struct {
	handler slog.Handler
	ch      chan<- LogMsg
	attrs   []slog.Attr
}

// NewLogCapture wraps handler. Messages are dropped when logChan is full.
func NewLogCapture(handler slog.Handler, logChan chan<- LogMsg) *LogCapture {
	return &LogCapture{
		handler: handler,
		ch:      logChan,
	}
}

func (lc *LogCapture) Enabled(ctx context.Context, level slog.Level) bool {
	return lc.handler.Enabled(ctx, level)
}

func (lc *LogCapture) Handle(ctx context.Context, r slog.Record) error {
	select {
	case lc.ch <- LogMsg(lc.format(r)):
	default:
	}
	return lc.handler.Handle(ctx, r)
}

func (lc *LogCapture) format(r slog.Record) string {
	parts := []string{r.Level.String(), r.Message}
	for _, a := range lc.attrs {
		parts = append(parts, a.String())
	}
	r.Attrs(func(a slog.Attr) bool {
		parts = append(parts, a.String())
		return true
	})
	return strings.Join(parts, " ")
}

func (lc *LogCapture) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &LogCapture{
		handler: lc.handler.WithAttrs(attrs),
		ch:      lc.ch,
		attrs:   append(append([]slog.Attr(nil), lc.attrs...), attrs...),
	}
}

func (lc *LogCapture) WithGroup(name string) slog.Handler {
	return &LogCapture{
		handler: lc.handler.WithGroup(name),
		ch:      lc.ch,
		attrs:   lc.attrs,
	}
}

// LogWriter forwards complete lines written to it as LogMsg values, e.g.
// compiler output while the TUI owns the terminal.
type LogWriter struct {
	mu      sync.Mutex
	writer  io.Writer
	ch      chan<- LogMsg
	partial []byte
}

// NewLogWriter returns a writer sending lines to logChan and copying all
// bytes to writer.
func NewLogWriter(writer io.Writer, logChan chan<- LogMsg) *LogWriter {
	return &LogWriter{
		writer: writer,
		ch:     logChan,
	}
}

func (lw *LogWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	lw.partial = append(lw.partial, p...)
	for {
		i := bytes.IndexByte(lw.partial, '\n')
		if i < 0 {
			break
		}
		line := strings.TrimRight(string(lw.partial[:i]), "\r")
		lw.partial = lw.partial[i+1:]
		select {
		case lw.ch <- LogMsg(line):
		default:
		}
	}
	lw.mu.Unlock()

	return lw.writer.Write(p)
}
