package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/ThandieOps/muda/internal/build"
	"github.com/ThandieOps/muda/internal/cache"
	"github.com/ThandieOps/muda/internal/host"
	"github.com/ThandieOps/muda/internal/logger"
	"github.com/ThandieOps/muda/internal/model"
	"github.com/ThandieOps/muda/internal/plugin"
	"github.com/ThandieOps/muda/internal/tui"
	"github.com/spf13/cobra"
)

// Build flags, shared by `muda` and `muda build`
var (
	compilerFlag string
	optimizeFlag bool
	showCommands bool
	configsFlag  []string
	pluginsFlag  bool
	dryRunFlag   bool
	tuiFlag      bool
)

// buildCmd represents: `muda build [dir]`
var buildCmd = &cobra.Command{
	Use:   "build [dir]",
	Short: "Build the directory and, for solutions, its subdirectories",
	Long: `Build reads build.muda in the given directory (default: the current one),
or the user-wide config.muda when there is none, and builds every
configuration in it. Use --config to build only some of them.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runBuildCmd,
}

func init() {
	rootCmd.AddCommand(buildCmd)
	addBuildFlags(buildCmd)
}

func addBuildFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&compilerFlag, "compiler", "C", "", "Force a compiler: cl, clang or gcc")
	f.BoolVarP(&optimizeFlag, "optimize", "O", false, "Optimize every target regardless of its configuration")
	f.BoolVarP(&showCommands, "show-commands", "s", false, "Log every command line before running it")
	f.StringSliceVarP(&configsFlag, "config", "c", nil, "Build only these configurations, in this order")
	f.BoolVarP(&pluginsFlag, "plugins", "p", true, "Load the plugin at .muda/plugin of the root directory")
	f.BoolVar(&dryRunFlag, "dry-run", false, "Print command lines without running them")
	f.BoolVar(&tuiFlag, "tui", false, "Show build progress in a terminal UI")
}

func runBuildCmd(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	report, err := buildOnce(ctx, cmd, args, tuiFlag)
	if report != nil {
		printSummary(report)
	}
	if err != nil {
		logger.Error("build failed", "error", err)
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	if !report.Succeeded() {
		os.Exit(1)
	}
}

// buildOnce runs one full build of the directory in args and caches the
// report.
func buildOnce(ctx context.Context, cmd *cobra.Command, args []string, withTUI bool) (*cache.Report, error) {
	log := logger.Get()
	if withTUI {
		// the TUI owns the terminal; records reach it through the builder's logger
		log = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: logger.Level()}))
	}
	b, err := newBuilder(cmd, args, log)
	if err != nil {
		return nil, err
	}

	var report *cache.Report
	if withTUI {
		report, err = tui.RunBuild(ctx, b)
	} else {
		report, err = b.Run(ctx)
	}
	if report != nil {
		saveReport(report)
	}
	return report, err
}

// newBuilder prepares a builder rooted at args[0], or the working directory,
// from flags and settings.
func newBuilder(cmd *cobra.Command, args []string, log *slog.Logger) (*build.Builder, error) {
	h, err := host.NewOS()
	if err != nil {
		return nil, err
	}
	if len(args) > 0 {
		if err := h.Chdir(args[0]); err != nil {
			return nil, err
		}
	}

	opts, err := buildOptions(cmd)
	if err != nil {
		return nil, err
	}

	hook := plugin.Hook(plugin.Null{})
	if pluginsEnabled(cmd) {
		path := cfg.Build.PluginPath
		if path == "" {
			path = plugin.DefaultPath()
		}
		logPath := logFile
		if logPath == "" {
			logPath = cfg.Logging.File
		}
		hook = plugin.Load(h.Abs(path), plugin.CommandLine{
			ForceCompiler:      opts.Compiler,
			ForceOptimization:  opts.ForceOptimization,
			DisplayCommandLine: opts.ShowCommands,
			DisableLogs:        quiet,
			Configurations:     opts.Configurations,
			LogFile:            logPath,
		}, log)
	}

	return build.New(h, hook, log, opts), nil
}

// buildOptions merges build flags over the settings file
func buildOptions(cmd *cobra.Command) (build.Options, error) {
	flags := cmd.Flags()
	opts := build.Options{
		ForceOptimization: cfg.Build.Optimize || optimizeFlag,
		ShowCommands:      cfg.Build.ShowCommands || showCommands,
		DryRun:            dryRunFlag,
		Configurations:    configsFlag,
	}

	name := cfg.Build.Compiler
	if flags.Changed("compiler") {
		name = compilerFlag
	}
	if name != "" {
		c, ok := model.ParseCompiler(name)
		if !ok {
			return opts, fmt.Errorf("unknown compiler %q (expected cl, clang or gcc)", name)
		}
		opts.Compiler = c
	}
	return opts, nil
}

func pluginsEnabled(cmd *cobra.Command) bool {
	if cmd.Flags().Changed("plugins") {
		return pluginsFlag
	}
	return cfg.Build.Plugins
}

func saveReport(report *cache.Report) {
	c, err := cache.New()
	if err != nil {
		logger.Warn("failed to initialize cache", "error", err)
		return
	}
	if err := c.SaveReport(report); err != nil {
		logger.Warn("failed to save build report", "error", err)
		return
	}
	logger.Debug("build report cached", "path", c.ReportPath(report.RootDirectory))
}

func printSummary(report *cache.Report) {
	for _, t := range report.Targets {
		status := "ok"
		if !t.Succeeded {
			status = "FAILED (" + t.Stage + ")"
		}
		name := t.Name
		if name == "" {
			name = "-"
		}
		fmt.Printf("%-8s %-20s %s\n", status, name, relative(report.RootDirectory, t.Directory))
	}
	fmt.Printf("%d targets, %d failed in %s\n", len(report.Targets), report.Failed(), report.Duration().Round(time.Millisecond))
}

func relative(root, dir string) string {
	if rel, err := filepath.Rel(root, dir); err == nil {
		return rel
	}
	return dir
}
