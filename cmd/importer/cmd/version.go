package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	// Printing the version needs no configuration.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "importer %s\n", getVersionString())
		if verbose {
			fmt.Fprintf(cmd.OutOrStdout(), "commit: %s\nbuilt:  %s\ngo:     %s\n", commit, date, runtime.Version())
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
