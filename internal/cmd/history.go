package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/harrison/nextaudit/internal/config"
	"github.com/harrison/nextaudit/internal/history"
	"github.com/harrison/nextaudit/internal/models"
	"github.com/harrison/nextaudit/internal/report"
	"github.com/spf13/cobra"
)

// NewHistoryCommand creates the history command
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded scans",
		Long: `List scans recorded with 'nextaudit scan --record' or history.enabled.

The history database lives at history.db_path (default .nextaudit/history.db)
inside the project directory. Use --run to print the issues of one run; a
unique prefix of the run id is enough.`,
		Args: cobra.NoArgs,
		RunE: runHistory,
	}

	cmd.Flags().StringP("path", "p", ".", "Path to project")
	cmd.Flags().Int("limit", 10, "Maximum number of runs to list (0 = all)")
	cmd.Flags().String("run", "", "Show the issues of this run id")

	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	path, _ := cmd.Flags().GetString("path")
	limit, _ := cmd.Flags().GetInt("limit")
	runID, _ := cmd.Flags().GetString("run")

	cfg, err := config.LoadConfigFromDir(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	dbPath := cfg.HistoryDBPath(path)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Fprintf(out, "No recorded scans.\n")
		fmt.Fprintf(out, "Database path: %s\n", dbPath)
		return nil
	}

	store, err := history.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open history store: %w", err)
	}
	defer store.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if runID != "" {
		issues, err := store.RunIssues(ctx, runID)
		if err != nil {
			return err
		}
		_, err = out.Write(report.Text(issues, false))
		return err
	}

	runs, err := store.ListRuns(ctx, limit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Fprintf(out, "No recorded scans.\n")
		return nil
	}

	printRuns(out, runs)
	return nil
}

func printRuns(w io.Writer, runs []*history.Run) {
	cyan := color.New(color.FgCyan, color.Bold)
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)

	cyan.Fprintf(w, "Recorded scans (%d):\n", len(runs))
	for _, run := range runs {
		fmt.Fprintf(w, "\n  %s  %s\n", run.ID, run.StartedAt.Local().Format("2006-01-02 15:04:05"))
		fmt.Fprintf(w, "    Root: %s\n", run.Root)
		fmt.Fprintf(w, "    Files: %d found, %d evaluated, %d skipped\n", run.FilesFound, run.FilesEvaluated, run.FilesSkipped)
		fmt.Fprintf(w, "    Issues: %d (", run.IssueCount)
		fprintCount(w, red, models.SeverityHigh, run.HighCount)
		fmt.Fprint(w, ", ")
		fprintCount(w, yellow, models.SeverityWarning, run.WarningCount)
		fmt.Fprint(w, ", ")
		fmt.Fprintf(w, "%s: %d", models.SeverityInfo, run.InfoCount)
		fmt.Fprintf(w, ")\n")
	}
}

func fprintCount(w io.Writer, c *color.Color, label string, n int) {
	if n > 0 {
		c.Fprintf(w, "%s: %d", label, n)
		return
	}
	fmt.Fprintf(w, "%s: %d", label, n)
}
