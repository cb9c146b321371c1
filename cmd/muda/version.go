package main

import (
	"fmt"

	"github.com/ThandieOps/muda/internal/cache"
	"github.com/ThandieOps/muda/internal/config"
	"github.com/ThandieOps/muda/internal/logger"
	"github.com/ThandieOps/muda/internal/version"
	"github.com/spf13/cobra"
)

// versionCmd represents: `muda version`
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the muda version and the supported file and plugin versions",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("muda %s\n", version.Current)
		fmt.Printf("  build.muda format: %s - %s\n", version.MinSupported, version.Current)
		fmt.Printf("  plugin protocol:   %s - %s\n", version.PluginMinSupported, version.Current)

		fmt.Printf("  settings:          %s\n", config.DefaultPath())
		if path, err := logger.GetLogFilePath(); err == nil {
			fmt.Printf("  log file:          %s\n", path)
		}
		if c, err := cache.New(); err == nil {
			fmt.Printf("  reports:           %s\n", c.Dir())
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
