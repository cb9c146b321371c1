package tui

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/ThandieOps/muda/internal/build"
	"github.com/ThandieOps/muda/internal/cache"
	"github.com/ThandieOps/muda/internal/host"
	tea "github.com/charmbracelet/bubbletea"
)

// RunBuild runs b under a progress TUI. The builder's logger, progress
// callback and shell output are redirected to the TUI. Quitting the TUI
// cancels the build and waits for it to stop.
func RunBuild(ctx context.Context, b *build.Builder) (*cache.Report, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	progressChan := make(chan ProgressMsg, 16)
	logChan := make(chan LogMsg, 100)
	completeChan := make(chan BuildCompleteMsg, 1)
	done := make(chan struct{})

	b.Log = slog.New(NewLogCapture(b.Log.Handler(), logChan))
	if _, ok := b.Host.Runner.(*host.ShellRunner); ok {
		out := NewLogWriter(io.Discard, logChan)
		b.Host.Runner = host.NewShellRunner(out, out)
	}
	b.Progress = func(p build.Progress) {
		select {
		case progressChan <- ProgressMsg(p):
		case <-ctx.Done():
		}
	}

	var result BuildCompleteMsg
	go func() {
		defer close(done)
		defer close(progressChan)
		defer close(logChan)

		report, err := b.Run(ctx)
		result = BuildCompleteMsg{Report: report, Error: err}
		completeChan <- result
	}()

	wrapper := &buildTUIWrapper{
		model:        NewBuildModel(b.Host.Getwd()),
		progressChan: progressChan,
		logChan:      logChan,
		completeChan: completeChan,
	}

	p := tea.NewProgram(wrapper, tea.WithAltScreen())
	_, err := p.Run()
	cancel()
	<-done
	if err != nil {
		return result.Report, fmt.Errorf("TUI error: %w", err)
	}
	return result.Report, result.Error
}

// buildTUIWrapper feeds the channels of a running build into BuildModel
type buildTUIWrapper struct {
	model        BuildModel
	progressChan <-chan ProgressMsg
	logChan      <-chan LogMsg
	completeChan <-chan BuildCompleteMsg
}

func (w *buildTUIWrapper) Init() tea.Cmd {
	return tea.Batch(
		w.model.Init(),
		waitFor(w.progressChan),
		waitFor(w.logChan),
		waitFor(w.completeChan),
	)
}

func (w *buildTUIWrapper) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg.(type) {
	case ProgressMsg:
		cmds = append(cmds, waitFor(w.progressChan))
	case LogMsg:
		cmds = append(cmds, waitFor(w.logChan))
	}

	updated, cmd := w.model.Update(msg)
	w.model = updated.(BuildModel)
	cmds = append(cmds, cmd)
	return w, tea.Batch(cmds...)
}

func (w *buildTUIWrapper) View() string {
	return w.model.View()
}

// waitFor returns a command delivering the next value of ch, or nothing
// once ch is closed.
func waitFor[T any](ch <-chan T) tea.Cmd {
	return func() tea.Msg {
		if msg, ok := <-ch; ok {
			return msg
		}
		return nil
	}
}
