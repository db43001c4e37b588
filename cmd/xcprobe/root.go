package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "xcprobe",
	Short: "XCProbe - business application discovery from host evidence",
	Long: `XCProbe collects read-only evidence by running allowlisted commands on
the host it runs on (--target only labels the bundle), redacts secrets from
everything it captures, and analyzes the result
offline into clusters of business applications, their dependencies, and a
deterministic pack plan describing how to redeploy them.

XCProbe never modifies target state and never attempts to recover a
redacted secret.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
