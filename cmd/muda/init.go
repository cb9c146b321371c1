package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ThandieOps/muda/internal/build"
	"github.com/ThandieOps/muda/internal/config"
	"github.com/ThandieOps/muda/internal/model"
	"github.com/ThandieOps/muda/internal/version"
	"github.com/spf13/cobra"
)

var (
	initForce    bool
	initSettings bool
)

// initCmd represents: `muda init [dir]`
var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Create a starter build.muda, or the settings file with --settings",
	Long: `Init writes a starter build.muda with a Debug and a Release configuration
in the given directory. With --settings it instead prompts for the tool
settings and writes them as YAML.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var err error
		if initSettings {
			err = runInitSettings(bufio.NewReader(os.Stdin), os.Stdout)
		} else {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			err = writeStarter(dir, initForce)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error initializing: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing build.muda")
	initCmd.Flags().BoolVar(&initSettings, "settings", false, "Interactively write the settings file")
}

// starterFile is the build.muda written by `muda init`
func starterFile(name string) string {
	return fmt.Sprintf(`@version: %s

:Debug
Application = Executable;
Build = %s;
BuildDirectory = ./bin/debug;
DebugSymbol = true;
Sources = *.c;

[OS.WINDOWS]
Libraries = kernel32, user32;

:Release
Application = Executable;
Build = %s;
BuildDirectory = ./bin/release;
Optimization = true;
Sources = *.c;

[OS.WINDOWS]
Libraries = kernel32, user32;
`, version.Current, name, name)
}

func writeStarter(dir string, force bool) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	path := filepath.Join(abs, build.LocalFile)
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	name := sanitizeName(filepath.Base(abs))
	if err := os.WriteFile(path, []byte(starterFile(name)), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	fmt.Printf("✓ Created %s\n", path)
	return nil
}

// sanitizeName turns a directory name into an artifact name
func sanitizeName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		}
		return '_'
	}, name)
	if strings.Trim(name, "_") == "" {
		return "output"
	}
	return name
}

// runInitSettings prompts for the settings, using the defaults when the
// answer is empty, and writes them.
func runInitSettings(reader *bufio.Reader, out io.Writer) error {
	defaults := config.Default()

	ask := func(question, def string) string {
		fmt.Fprintf(out, "%s [%s]: ", question, def)
		answer, _ := reader.ReadString('\n')
		answer = strings.TrimSpace(answer)
		if answer == "" {
			return def
		}
		return answer
	}
	yes := func(question string, def bool) bool {
		d := "y/N"
		if def {
			d = "Y/n"
		}
		switch strings.ToLower(ask(question, d)) {
		case "y", "yes":
			return true
		case "n", "no":
			return false
		}
		return def
	}

	path := ask("Settings file location", config.DefaultPath())
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	cfg := defaults
	for {
		name := ask("Default compiler (cl, clang, gcc or empty for auto)", "")
		if name == "" {
			break
		}
		if _, ok := model.ParseCompiler(name); ok {
			cfg.Build.Compiler = strings.ToLower(name)
			break
		}
		fmt.Fprintf(out, "Unknown compiler %q\n", name)
	}
	cfg.Build.ShowCommands = yes("Show command lines", defaults.Build.ShowCommands)
	cfg.Build.Plugins = yes("Load plugins from .muda/plugin", defaults.Build.Plugins)
	cfg.Logging.Level = ask("Log level (debug, info, warn, error)", defaults.Logging.Level)
	cfg.Logging.ToFile = yes("Also write logs to a file", defaults.Logging.ToFile)

	if _, err := os.Stat(path); err == nil {
		fmt.Fprintf(out, "\nSettings file already exists at %s\n", path)
		if !yes("Overwrite?", false) {
			fmt.Fprintln(out, "Initialization cancelled.")
			return nil
		}
	}

	if err := config.Write(path, cfg); err != nil {
		return err
	}
	fmt.Fprintf(out, "\n✓ Settings file created successfully at %s\n", path)
	return nil
}
