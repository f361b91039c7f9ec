package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for nextaudit
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nextaudit",
		Short: "Heuristic code-quality scanner for web projects",
		Long: `nextaudit walks a project directory and reports accessibility,
performance and security findings by matching file contents against a
small fixed rule set.

Checks are textual heuristics, not parsers: they are fast and need no
configuration, but every finding is a hint to look closer.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	cmd.AddCommand(NewScanCommand())
	cmd.AddCommand(NewDocsCommand())
	cmd.AddCommand(NewConfigCommand())
	cmd.AddCommand(NewHistoryCommand())

	return cmd
}
