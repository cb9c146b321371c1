package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ThandieOps/muda/internal/cache"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	mainTitleStyle        = lipgloss.NewStyle().MarginLeft(2)
	mainItemStyle         = lipgloss.NewStyle().PaddingLeft(2)
	mainSelectedItemStyle = lipgloss.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("170"))
	mainPathStyle         = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	mainLabelStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	mainValueStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
)

// TargetItem is one target of a report in the list pane
type TargetItem struct {
	Record cache.TargetRecord
}

func (t TargetItem) FilterValue() string {
	return t.Record.Name + " " + filepath.Base(t.Record.Directory)
}

func (t TargetItem) Title() string {
	mark := okStyle.Render("✓")
	if !t.Record.Succeeded {
		mark = failStyle.Render("✗")
	}
	name := t.Record.Name
	if name == "" {
		name = "(unconfigured)"
	}
	return fmt.Sprintf("%s %s (%s)", mark, name, filepath.Base(t.Record.Directory))
}

func (t TargetItem) Description() string {
	return ""
}

// RebuildFunc runs a new build and returns its report
type RebuildFunc func() (*cache.Report, error)

// ReportLoadedMsg replaces the report shown
type ReportLoadedMsg struct {
	Report *cache.Report
	Error  error
}

// ReportModel browses the targets of a build report: a target list on the
// left and the selected target's details on the right.
type ReportModel struct {
	report        *cache.Report
	rebuild       RebuildFunc
	list          list.Model
	selectedIndex int
	width         int
	height        int
	leftWidth     int
	rightWidth    int
	status        string
}

// NewReportModel shows report. rebuild, when non-nil, is bound to the b key.
func NewReportModel(report *cache.Report, rebuild RebuildFunc) ReportModel {
	l := list.New(nil, newTargetDelegate(), 0, 0)
	l.Title = "Targets"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = mainTitleStyle
	l.Styles.PaginationStyle = lipgloss.NewStyle()
	l.Styles.HelpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	l.SetShowHelp(true)
	l.DisableQuitKeybindings()

	m := ReportModel{
		rebuild:    rebuild,
		list:       l,
		width:      80,
		height:     24,
		leftWidth:  40,
		rightWidth: 40,
	}
	m.setReport(report)
	return m
}

func (m *ReportModel) setReport(report *cache.Report) {
	m.report = report
	var items []list.Item
	if report != nil {
		items = make([]list.Item, len(report.Targets))
		for i, t := range report.Targets {
			items[i] = TargetItem{Record: t}
		}
	}
	m.list.SetItems(items)
	if len(items) > 0 {
		m.selectedIndex = 0
		m.list.Select(0)
	} else {
		m.selectedIndex = -1
	}
}

func (m ReportModel) Init() tea.Cmd {
	return tea.WindowSize()
}

func (m ReportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.leftWidth = int(float64(msg.Width) * 0.4)
		m.rightWidth = msg.Width - m.leftWidth
		m.list.SetWidth(max(m.leftWidth-6, 10))
		m.list.SetHeight(max(msg.Height-3, 5))
		if m.selectedIndex >= 0 {
			m.list.Select(m.selectedIndex)
		}
		return m, nil

	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "b":
			if m.rebuild != nil {
				m.status = "building..."
				return m, m.runRebuild()
			}
		}

	case ReportLoadedMsg:
		if msg.Error != nil {
			m.status = "build failed: " + msg.Error.Error()
		} else {
			m.status = ""
		}
		if msg.Report != nil {
			m.setReport(msg.Report)
		}
		return m, tea.WindowSize()
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	if item, ok := m.list.SelectedItem().(TargetItem); ok {
		m.selectedIndex = m.indexOf(item.Record)
	}
	return m, cmd
}

func (m ReportModel) indexOf(r cache.TargetRecord) int {
	for i, t := range m.report.Targets {
		if t.Directory == r.Directory && t.Name == r.Name {
			return i
		}
	}
	return -1
}

// runRebuild runs the rebuild outside the update loop
func (m ReportModel) runRebuild() tea.Cmd {
	rebuild := m.rebuild
	return func() tea.Msg {
		report, err := rebuild()
		return ReportLoadedMsg{Report: report, Error: err}
	}
}

func (m ReportModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	title := "muda"
	if m.report != nil {
		title += " - " + m.report.RootDirectory
	}
	if m.status != "" {
		title += " [" + m.status + "]"
	}
	header := lipgloss.NewStyle().
		Width(m.width).
		Padding(0, 1).
		Render(title)

	paneHeight := m.height - 2

	leftPane := lipgloss.NewStyle().
		Width(m.leftWidth).
		Height(paneHeight).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Render(m.list.View())

	rightPane := lipgloss.NewStyle().
		Width(m.rightWidth).
		Height(paneHeight).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(1, 1).
		Render(m.renderDetails(max(m.rightWidth-6, 10)))

	panes := lipgloss.JoinHorizontal(lipgloss.Top, leftPane, rightPane)
	return lipgloss.JoinVertical(lipgloss.Left, header, "", panes)
}

func (m ReportModel) renderDetails(contentWidth int) string {
	if m.report == nil || len(m.report.Targets) == 0 {
		return "No targets in report"
	}
	if m.selectedIndex < 0 || m.selectedIndex >= len(m.report.Targets) {
		return "Select a target"
	}

	t := m.report.Targets[m.selectedIndex]
	var sections []string

	for _, line := range wrapText(t.Directory, contentWidth) {
		sections = append(sections, mainPathStyle.Render(line))
	}
	sections = append(sections, "")

	field := func(label, value string) {
		sections = append(sections, mainLabelStyle.Render(label+":"))
		for _, line := range wrapText(value, contentWidth-2) {
			sections = append(sections, mainValueStyle.Render("  "+line))
		}
		sections = append(sections, "")
	}

	field("Kind", t.Kind.String())
	if t.Artifact != "" {
		field("Artifact", t.Artifact)
	}
	status := "Succeeded"
	if !t.Succeeded {
		status = "Failed at " + t.Stage
	}
	field("Status", status)
	if t.Error != "" {
		field("Error", t.Error)
	}
	if len(t.Commands) > 0 {
		sections = append(sections, mainLabelStyle.Render("Commands:"))
		for _, c := range t.Commands {
			for _, line := range wrapText(c, contentWidth-4) {
				sections = append(sections, mainValueStyle.Render("  - "+line))
			}
		}
		sections = append(sections, "")
	}

	if g := m.report.Git; g != nil && g.IsGitRepo {
		if g.CurrentBranch != "" {
			field("Branch", g.CurrentBranch+" "+g.Commit)
		}
		if g.HasUncommitted {
			sections = append(sections, mainLabelStyle.Render("Uncommitted:"))
			files, more := parseStatusSummary(g.StatusSummary)
			for _, f := range files {
				sections = append(sections, mainValueStyle.Render("  - "+f))
			}
			if more != "" {
				sections = append(sections, mainValueStyle.Render("  "+more))
			}
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// parseStatusSummary splits a git status summary of the form
// "XY file1; XY file2 ... (N more)" into file names and the trailing
// "... (N more)" text.
func parseStatusSummary(summary string) ([]string, string) {
	if summary == "" || summary == "clean" {
		return nil, ""
	}

	var files []string
	var moreText string
	for _, part := range strings.Split(summary, "; ") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.HasPrefix(part, "...") {
			moreText = part
			continue
		}
		if i := strings.Index(part, " ... ("); i > 0 {
			moreText = part[i+1:]
			part = part[:i]
		}
		if i := strings.Index(part, " "); i > 0 && i < len(part)-1 {
			part = part[i+1:]
		}
		files = append(files, part)
	}
	return files, moreText
}

// wrapText wraps text on spaces to fit width. Longer words get their own line.
func wrapText(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	current := ""
	for _, word := range words {
		next := word
		if current != "" {
			next = current + " " + word
		}
		if len(next) <= width {
			current = next
			continue
		}
		if current != "" {
			lines = append(lines, current)
		}
		current = word
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}

func newTargetDelegate() list.DefaultDelegate {
	d := list.NewDefaultDelegate()
	d.Styles.SelectedTitle = mainSelectedItemStyle
	d.Styles.SelectedDesc = mainSelectedItemStyle
	d.Styles.NormalTitle = mainItemStyle
	d.Styles.NormalDesc = mainItemStyle
	d.ShowDescription = false
	d.SetSpacing(0)
	return d
}
