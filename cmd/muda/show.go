package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/ThandieOps/muda/internal/logger"
	"github.com/ThandieOps/muda/internal/model"
	"github.com/ThandieOps/muda/internal/plugin"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var showFormat string

// showCmd represents: `muda show [dir]`
var showCmd = &cobra.Command{
	Use:   "show [dir]",
	Short: "Print the resolved configurations of a directory",
	Long: `Show parses build.muda (or the user-wide config.muda) the same way a build
would, applying the sections that match this host and compiler, and prints
the resulting configurations without building anything.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runShow(cmd, args, os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().StringVarP(&showFormat, "format", "f", "table", "Output format: table, json, yaml or toml")
	showCmd.Flags().StringVarP(&compilerFlag, "compiler", "C", "", "Resolve sections for this compiler: cl, clang or gcc")
}

func runShow(cmd *cobra.Command, args []string, w io.Writer) error {
	b, err := newBuilder(cmd, args, logger.Get())
	if err != nil {
		return err
	}
	defer func() {
		if err := plugin.Dispatch(b.Hook, plugin.Event{Kind: plugin.EventDestroy}); err != nil {
			logger.Debug("plugin destroy failed", "error", err)
		}
	}()

	configs, err := b.Resolve()
	if err != nil {
		return err
	}
	return writeEntries(w, configs.Entries(), showFormat)
}

func writeEntries(w io.Writer, entries []*model.Entry, format string) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(entries); err != nil {
			return err
		}
		return enc.Close()
	case "toml":
		// TOML has no top-level arrays
		enc := toml.NewEncoder(w)
		enc.SetIndentTables(true)
		return enc.Encode(struct {
			Configuration []*model.Entry `toml:"configuration"`
		}{entries})
	case "table", "":
		return writeTable(w, entries)
	}
	return fmt.Errorf("unknown format %q (expected table, json, yaml or toml)", format)
}

func writeTable(w io.Writer, entries []*model.Entry) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, e := range entries {
		if i > 0 {
			fmt.Fprintln(tw)
		}
		fmt.Fprintf(tw, "[%s]\n", e.Name)
		row := func(key, value string) {
			if value != "" {
				fmt.Fprintf(tw, "  %s\t%s\n", key, value)
			}
		}
		list := func(key string, values []string) {
			row(key, strings.Join(values, ", "))
		}

		row("Kind", e.Kind.String())
		if e.Kind == model.KindProject {
			row("Application", e.Application.String())
			row("Language", e.Language.String())
			row("Optimization", fmt.Sprint(e.Optimization))
			row("DebugSymbol", fmt.Sprint(e.DebugSymbol))
			row("Subsystem", e.Subsystem.String())
		}
		row("Build", e.Build)
		row("BuildDirectory", e.BuildDirectory)
		row("ResourceFile", e.ResourceFile)
		row("Prebuild", e.Prebuild)
		row("Postbuild", e.Postbuild)
		list("Defines", e.Defines)
		list("IncludeDirectories", e.IncludeDirectories)
		list("Sources", e.Sources)
		list("LibraryDirectories", e.LibraryDirectories)
		list("Libraries", e.Libraries)
		list("Flags", e.Flags)
		list("LinkerFlags", e.LinkerFlags)
		list("ProjectDirectories", e.ProjectDirectories)
		list("IgnoredDirectories", e.IgnoredDirectories)
	}
	return tw.Flush()
}
