package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ThandieOps/muda/internal/build"
	"github.com/ThandieOps/muda/internal/cache"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	padding  = 2
	maxWidth = 80
	maxLogs  = 1000
)

var (
	titleStyle = func() lipgloss.Style {
		b := lipgloss.RoundedBorder()
		b.Right = "├"
		return lipgloss.NewStyle().BorderStyle(b).Padding(0, 1)
	}()

	infoStyle = func() lipgloss.Style {
		b := lipgloss.RoundedBorder()
		b.Left = "┤"
		return titleStyle.BorderStyle(b)
	}()

	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// ProgressMsg carries a stage change of one target
type ProgressMsg build.Progress

// LogMsg is one formatted log line
type LogMsg string

// BuildCompleteMsg is sent once the builder returns
type BuildCompleteMsg struct {
	Report *cache.Report
	Error  error
}

type targetRow struct {
	directory string
	name      string
	stage     build.Stage
	finished  bool
	succeeded bool
}

// BuildModel shows the targets of a running build with their stages, an
// overall progress bar and the log.
type BuildModel struct {
	root string

	progress    progress.Model
	spinner     spinner.Model
	logViewport viewport.Model
	logs        []string
	rows        []targetRow
	index       map[string]int
	width       int
	height      int
	building    bool
	report      *cache.Report
	err         error
}

// NewBuildModel returns the model for a build rooted at root
func NewBuildModel(root string) BuildModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return BuildModel{
		root:        root,
		progress:    progress.New(progress.WithScaledGradient("#FF6B6B", "#4ECDC4")),
		spinner:     s,
		logViewport: viewport.New(0, 0),
		index:       make(map[string]int),
		building:    true,
		width:       maxWidth,
		height:      24,
	}
}

func (m BuildModel) Init() tea.Cmd {
	return tea.Batch(tea.WindowSize(), m.spinner.Tick)
}

func (m BuildModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = min(max(msg.Width-padding*2-4, 20), maxWidth)

		// title, bar, summary and target table take the top, the footer two lines
		viewportHeight := max(msg.Height-m.headerHeight()-2, 5)
		m.logViewport.Height = viewportHeight
		m.logViewport.Width = max(msg.Width-padding*2-4, 20)
		return m, nil

	case ProgressMsg:
		m.track(build.Progress(msg))
		return m, nil

	case LogMsg:
		m.addLog(string(msg))
		return m, nil

	case BuildCompleteMsg:
		m.building = false
		m.report = msg.Report
		m.err = msg.Error
		switch {
		case msg.Error != nil:
			m.addLog(fmt.Sprintf("Error: %v", msg.Error))
		case msg.Report != nil:
			m.addLog(fmt.Sprintf("Build finished: %d targets, %d failed", len(msg.Report.Targets), msg.Report.Failed()))
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		}
		if !m.building {
			return m, tea.Quit
		}
	}

	var progressCmd tea.Cmd
	progressModel, progressCmd := m.progress.Update(msg)
	if p, ok := progressModel.(progress.Model); ok {
		m.progress = p
	}

	var viewportCmd tea.Cmd
	m.logViewport, viewportCmd = m.logViewport.Update(msg)

	return m, tea.Batch(progressCmd, viewportCmd)
}

func (m *BuildModel) track(p build.Progress) {
	key := p.Directory + "\x00" + p.Target
	i, ok := m.index[key]
	if !ok {
		i = len(m.rows)
		m.index[key] = i
		m.rows = append(m.rows, targetRow{directory: p.Directory, name: p.Target})
	}
	r := &m.rows[i]
	r.stage = p.Stage
	r.finished = p.Finished
	r.succeeded = p.Succeeded
}

func (m BuildModel) finished() int {
	n := 0
	for _, r := range m.rows {
		if r.finished {
			n++
		}
	}
	return n
}

// percent is the share of known targets that finished. Targets below
// solutions appear as they start, so the bar can move backwards.
func (m BuildModel) percent() float64 {
	if len(m.rows) == 0 {
		return 0
	}
	return float64(m.finished()) / float64(len(m.rows))
}

func (m BuildModel) headerHeight() int {
	return 6 + len(m.rows)
}

func (m BuildModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var sections []string

	title := titleStyle.Render("muda build")
	info := infoStyle.Render(m.root)
	sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Center, title, info), "")

	if len(m.rows) == 0 {
		sections = append(sections, m.spinner.View()+" Reading configuration...")
	} else {
		sections = append(sections,
			m.progress.ViewAs(m.percent()),
			fmt.Sprintf("Targets: %d/%d finished", m.finished(), len(m.rows)))
		for _, r := range m.rows {
			sections = append(sections, m.renderRow(r))
		}
	}

	sections = append(sections, "")
	m.logViewport.SetContent(strings.Join(m.logs, "\n"))
	boxWidth := min(m.logViewport.Width+4, m.width-padding*2)
	logBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(0, 1).
		Width(boxWidth).
		Height(m.logViewport.Height + 2).
		Render(m.logViewport.View())
	sections = append(sections, logBox)

	footer := "Press any key to exit"
	if m.building {
		footer = "Building... Press 'q' or Ctrl+C to quit"
	}
	sections = append(sections, "", footer)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m BuildModel) renderRow(r targetRow) string {
	label := fmt.Sprintf("%s (%s)", r.name, filepath.Base(r.directory))
	switch {
	case !r.finished:
		return m.spinner.View() + " " + label + " " + pendingStyle.Render(r.stage.String())
	case r.succeeded:
		return okStyle.Render("✓") + " " + label
	default:
		return failStyle.Render("✗") + " " + label + " " + failStyle.Render("failed at "+r.stage.String())
	}
}

// addLog appends a line, keeping the last maxLogs, and scrolls down
func (m *BuildModel) addLog(msg string) {
	m.logs = append(m.logs, msg)
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
	m.logViewport.SetContent(strings.Join(m.logs, "\n"))
	m.logViewport.GotoBottom()
}

// Report returns the report of the finished build, if any
func (m BuildModel) Report() *cache.Report {
	return m.report
}

// Err returns the error the build ended with
func (m BuildModel) Err() error {
	return m.err
}
