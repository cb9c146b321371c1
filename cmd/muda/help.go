package main

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/ThandieOps/muda/internal/resolver"
	"github.com/ThandieOps/muda/internal/version"
	"github.com/spf13/cobra"
)

// helpTopics are help pages that are not commands
var helpTopics = map[string]func(w io.Writer){
	"properties": writePropertiesHelp,
	"sections":   writeSectionsHelp,
	"format":     writeFormatHelp,
}

// helpCmd represents: `muda help [command|topic]`
// This wraps Cobra's built-in help and adds the build.muda reference topics
var helpCmd = &cobra.Command{
	Use:   "help [command]",
	Short: "Help about any command, or a build.muda topic",
	Long: `Help provides help for any command in the application. Simply type
'muda help [command]' for full details. The build.muda file format is
described by the topics 'format', 'properties' and 'sections'.`,
	// Add a custom annotation to identify our help command
	Annotations: map[string]string{"custom": "true"},
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			removeDefaultHelp()
			fmt.Print(rootCmd.UsageString())
			fmt.Println("\nFile format topics: format, properties, sections")
			return
		}

		if topic, ok := helpTopics[strings.ToLower(args[0])]; ok {
			topic(os.Stdout)
			return
		}

		targetCmd, _, err := rootCmd.Find(args)
		if err != nil || targetCmd == nil {
			fmt.Printf("Unknown help topic '%s'. Run 'muda help'.\n", strings.Join(args, " "))
			return
		}
		fmt.Print(targetCmd.UsageString())
	},
}

func init() {
	// Disable Cobra's built-in help command
	rootCmd.SetHelpCommand(nil)
	removeDefaultHelp()
	rootCmd.AddCommand(helpCmd)
}

func writePropertiesHelp(w io.Writer) {
	keys := resolver.Keys()
	slices.Sort(keys)

	fmt.Fprintln(w, "Properties (keys are case-sensitive):")
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, k := range keys {
		d, _ := resolver.Describe(k)
		fmt.Fprintf(tw, "  %s\t%s\n", k, d)
	}
	_ = tw.Flush()
	fmt.Fprintln(w, "\nUnknown keys are passed to the plugin, or ignored with a warning.")
}

func writeSectionsHelp(w io.Writer) {
	fmt.Fprintln(w, "Sections restrict the properties after them to a platform and compiler.")
	fmt.Fprintln(w, "A configuration header resets the section to [OS.ALL]. Headers are case-insensitive:")
	for _, name := range resolver.SectionNames() {
		fmt.Fprintf(w, "  [%s]\n", name)
	}
}

func writeFormatHelp(w io.Writer) {
	fmt.Fprintf(w, `A build.muda file starts with its format version (%s to %s):

  @version: %s
  # Properties before the first header belong to "default",
  # which the first header renames.
  :Debug
  Application = Executable;
  # Lists append; values are separated by commas
  Sources = main.c, util.c;
  # Quote values containing spaces, commas or semicolons
  Prebuild = "make gen";

  # Properties below apply on Windows only, until the next header
  [OS.WINDOWS]
  Libraries = user32;

Comments start with # and take a whole line.
`, version.MinSupported, version.Current, version.Current)
}
