package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/reqpace/packages/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate <config.yaml>",
	Short: "Validate a config file without running it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, err := config.Load(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", args[0], err)
			os.Exit(ExitConfigError)
		}

		if _, err := file.ToCycleConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", args[0], err)
			os.Exit(ExitConfigError)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s is valid\n", args[0])
		return nil
	},
}
