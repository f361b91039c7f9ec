package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/harrison/nextaudit/internal/docs"
	"github.com/spf13/cobra"
)

// NewDocsCommand creates the docs command
func NewDocsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docs",
		Short: "Write or show the rule documentation",
		Long: `Show where the rule documentation lives, or install it.

With --write the rule catalogue is written to docs/implementations.md in the
project directory, replacing any previous copy. Add --html to also render
docs/implementations.html.`,
		Args: cobra.NoArgs,
		RunE: runDocs,
	}

	cmd.Flags().StringP("path", "p", ".", "Project directory to install the docs into")
	cmd.Flags().BoolP("write", "w", false, "Write docs to disk (default: print path)")
	cmd.Flags().Bool("html", false, "Also render the docs as HTML (requires --write)")

	return cmd
}

func runDocs(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	root, _ := cmd.Flags().GetString("path")
	write, _ := cmd.Flags().GetBool("write")
	html, _ := cmd.Flags().GetBool("html")

	if html && !write {
		return fmt.Errorf("--html requires --write")
	}

	if !write {
		fmt.Fprintf(out, "See %s in the project root.\n", filepath.Join(docs.Dir, docs.MarkdownFile))
		return nil
	}

	written, err := docs.Write(root, html)
	for _, path := range written {
		fmt.Fprintf(out, "Wrote %s\n", path)
	}
	return err
}
