package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// These variables are set via ldflags during build.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintf(cmd.OutOrStdout(), "monorepo-sync version %s\n", Version)
		if Commit != "" && Commit != "unknown" {
			fmt.Fprintf(cmd.OutOrStdout(), "commit: %s\n", Commit)
		}
		if BuildDate != "" && BuildDate != "unknown" {
			fmt.Fprintf(cmd.OutOrStdout(), "built at: %s\n", BuildDate)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
