package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "reqpace",
	Short: "Paced two-request HTTP cycles.",
	Long: `reqpace repeatedly drives a pair of HTTP requests on a strict
schedule: request A fires at a fixed interval, and request B follows
each A after a fixed offset, optionally carrying values extracted from
A's response.`,
}

func Execute(v, bt string) {
	version = v
	buildTime = bt
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(versionCmd)
}
