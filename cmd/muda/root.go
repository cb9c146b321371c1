package main

import (
	"fmt"
	"os"

	"github.com/ThandieOps/muda/internal/config"
	"github.com/ThandieOps/muda/internal/logger"
	"github.com/spf13/cobra"
)

var (
	// Global flags (available to all subcommands)
	settingsPath string
	logLevel     string
	logJSON      bool
	logFile      string
	quiet        bool

	// cfg holds the loaded settings once PersistentPreRunE has run
	cfg *config.Config
)

// rootCmd represents the base command: `muda`. Without a subcommand it
// builds the current directory.
var rootCmd = &cobra.Command{
	Use:   "muda [dir]",
	Short: "muda builds C and C++ projects described by build.muda files",
	Long: `muda reads the build.muda file of a directory, turns every configuration
in it into compiler command lines for CL, Clang or GCC and runs them.
Solutions build each of their subdirectories in turn.`,
	Args:              cobra.MaximumNArgs(1),
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	Run:               runBuildCmd,
}

// setup loads the settings and configures logging before any command runs.
// Flags override settings.
func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(settingsPath)
	if err != nil {
		return err
	}

	opts := logger.Options{
		Level:  cfg.Logging.Level,
		JSON:   cfg.Logging.JSON,
		ToFile: cfg.Logging.ToFile,
		File:   cfg.Logging.File,
		Quiet:  quiet,
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		opts.Level = logLevel
	}
	if flags.Changed("log-json") {
		opts.JSON = logJSON
	}
	if flags.Changed("log-file") {
		opts.File = logFile
	}
	if err := logger.Init(opts); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Debug("settings loaded",
		"path", settingsPath,
		"level", opts.Level,
		"json", opts.JSON,
		"log_file", opts.File)
	return nil
}

// Execute is called by main.main()
func Execute() {
	// Remove duplicate help commands that Cobra may add during execution
	// We keep only our custom help command (identified by the "custom" annotation)
	removeDefaultHelp()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func removeDefaultHelp() {
	for _, c := range rootCmd.Commands() {
		if c.Use == "help [command]" || c.Use == "help" {
			if c.Annotations == nil || c.Annotations["custom"] != "true" {
				rootCmd.RemoveCommand(c)
			}
		}
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&settingsPath, "settings", "", "Path to the settings file (default "+config.DefaultPath()+")")
	pf.StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	pf.BoolVar(&logJSON, "log-json", false, "Write logs as JSON")
	pf.StringVar(&logFile, "log-file", "", "Also write logs to this file")
	pf.BoolVarP(&quiet, "quiet", "q", false, "Disable all logs")

	addBuildFlags(rootCmd)
}
