// Command picad is the pica-gallery server: it scans one or more media
// source trees, indexes them into a sqlite-backed metadata cache, and
// serves the gallery over HTTP.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version is set via -ldflags at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var configPath string

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to the YAML configuration file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

var rootCmd = &cobra.Command{
	Use:     "picad",
	Short:   "picad serves a self-hosted photo library",
	Version: fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, Date),
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("picad version %s (commit %s, built %s)\n", Version, Commit, Date)
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func main() {
	Execute()
}
