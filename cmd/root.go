// Package cmd implements the CLI commands for CodeCapsule using Cobra.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Flag shared by all commands.
var flagConfig string

var rootCmd = &cobra.Command{
	Use:   "codecapsule",
	Short: "CodeCapsule — turn web articles into paginated learning capsules",
	Long: `CodeCapsule fetches a web article, extracts and normalizes its content,
and uses an LLM to rewrite it as a paginated learning capsule with
reading progress and bookmarks.

Usage:
  codecapsule serve
  codecapsule create <url> [flags]`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "codecapsule.toml", "Path to the TOML config file")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
