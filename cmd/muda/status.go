package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ThandieOps/muda/internal/cache"
	"github.com/ThandieOps/muda/internal/host"
	"github.com/ThandieOps/muda/internal/logger"
	"github.com/ThandieOps/muda/internal/tui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var (
	statusTUI   bool
	statusClear bool
)

// statusCmd represents: `muda status [dir]`
var statusCmd = &cobra.Command{
	Use:   "status [dir]",
	Short: "Show the last build report of a directory",
	Long: `Status prints the report cached by the last build rooted at the given
directory: every target with its final stage, command lines and errors.
With --tui the report can be browsed and rebuilt interactively. --clear
removes every cached report.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runStatus(cmd, args); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVar(&statusTUI, "tui", false, "Browse the report in a terminal UI")
	statusCmd.Flags().BoolVar(&statusClear, "clear", false, "Remove all cached build reports")
}

func runStatus(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	root, err := filepath.Abs(dir)
	if err != nil {
		return err
	}

	c, err := cache.New()
	if err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}
	if statusClear {
		if err := c.Clear(); err != nil {
			return err
		}
		fmt.Printf("✓ Cleared build reports in %s\n", c.Dir())
		return nil
	}

	if !c.HasReport(root) {
		logger.Debug("no cached build report", "path", c.ReportPath(root))
		return fmt.Errorf("no build report for %s; run 'muda build %s' first", root, dir)
	}
	report, err := c.LoadReport(root)
	if err != nil {
		return err
	}

	if !statusTUI {
		printReport(report)
		return nil
	}

	rebuild := func() (*cache.Report, error) {
		return quietBuild(cmd, args)
	}
	p := tea.NewProgram(tui.NewReportModel(report, rebuild), tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// quietBuild runs a build without touching the terminal, for use while a
// TUI is showing.
func quietBuild(cmd *cobra.Command, args []string) (*cache.Report, error) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	b, err := newBuilder(cmd, args, log)
	if err != nil {
		return nil, err
	}
	b.Host.Runner = host.NewShellRunner(io.Discard, io.Discard)

	report, err := b.Run(context.Background())
	if report != nil {
		saveReport(report)
	}
	return report, err
}

func printReport(r *cache.Report) {
	fmt.Printf("Build %s of %s\n", r.RunID, r.RootDirectory)
	fmt.Printf("  started  %s (%s)\n", r.StartedAt.Format(time.RFC3339), r.Duration().Round(time.Millisecond))
	fmt.Printf("  compiler %s\n", r.Compiler)
	if r.DryRun {
		fmt.Println("  dry run")
	}
	if g := r.Git; g != nil && g.IsGitRepo {
		fmt.Printf("  git      %s %s (%s)\n", g.CurrentBranch, g.Commit, g.StatusSummary)
	}
	fmt.Println()

	for _, t := range r.Targets {
		status := "ok"
		if !t.Succeeded {
			status = "FAILED at " + t.Stage
		}
		name := t.Name
		if name == "" {
			name = "-"
		}
		fmt.Printf("%s (%s): %s\n", name, relative(r.RootDirectory, t.Directory), status)
		if t.Artifact != "" {
			fmt.Printf("  artifact %s\n", t.Artifact)
		}
		for _, c := range t.Commands {
			fmt.Printf("  $ %s\n", c)
		}
		if t.Error != "" {
			fmt.Printf("  error: %s\n", t.Error)
		}
	}
	fmt.Printf("\n%d targets, %d failed\n", len(r.Targets), r.Failed())
}
