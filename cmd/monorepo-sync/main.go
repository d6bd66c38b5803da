package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/formio/monorepo-sync/pkg/log"
)

var rootCmd = &cobra.Command{
	Use:   "monorepo-sync",
	Short: "Mirror merged pull requests from a source repository into the monorepo",
	Long: `monorepo-sync replays a pull request's file-level changes from a
single-package source repository into the package subdirectory of the
monorepo, commits them as the original author, pushes a branch, and
opens a pull request referencing the original.

Configuration comes from environment variables (GITHUB_TOKEN,
MONOSYNC_SOURCE_REPO, MONOSYNC_PACKAGE_LOCATION, ...) with optional
defaults from a .monosync/config.yaml file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	defer log.Close()

	if err := rootCmd.Execute(); err != nil {
		log.Error("fatal", "error", err)
		os.Exit(1)
	}
}
