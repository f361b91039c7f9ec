package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/harrison/nextaudit/internal/config"
	"github.com/harrison/nextaudit/internal/display"
	"github.com/harrison/nextaudit/internal/history"
	"github.com/harrison/nextaudit/internal/logger"
	"github.com/harrison/nextaudit/internal/models"
	"github.com/harrison/nextaudit/internal/report"
	"github.com/harrison/nextaudit/internal/scanner"
	"github.com/spf13/cobra"
)

// DefaultOutput is the report path used when --output is not given
const DefaultOutput = "nextaudit-report.json"

// NewScanCommand creates the scan command
func NewScanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan a project and emit a report",
		Long: `Scan a project directory and write a report of every finding.

Configuration is loaded from .nextaudit.yaml (or .nextaudit.yml) in the
scanned directory if present. CLI flags override configuration file settings.

Examples:
  nextaudit scan                              # Scan the current directory
  nextaudit scan -p ./web --format text       # Text report
  nextaudit scan --output -                   # Report to stdout
  nextaudit scan --ignore vendor --ignore out # Replace the ignore list
  nextaudit scan --large-file-kb 500          # Raise the large-file threshold
  nextaudit scan --record                     # Also record the run in history`,
		Args: cobra.NoArgs,
		RunE: runScan,
	}

	cmd.Flags().StringP("path", "p", ".", "Path to project")
	cmd.Flags().String("output", DefaultOutput, "Output file path (- for stdout)")
	cmd.Flags().String("format", string(report.FormatJSON), "Output format: json or text")
	cmd.Flags().StringSlice("ignore", nil, "Names to ignore, replacing the configured list (repeatable)")
	cmd.Flags().Uint("large-file-kb", config.DefaultLargeFileKB, "Large-file threshold in KB")
	cmd.Flags().Int("workers", 0, "Evaluation workers (0 = number of CPUs)")
	cmd.Flags().String("log-level", config.DefaultLogLevel, "Log level: trace, debug, info, warn, error")
	cmd.Flags().Bool("record", false, "Record this run in the history database")

	return cmd
}

func runScan(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()

	path, _ := cmd.Flags().GetString("path")
	output, _ := cmd.Flags().GetString("output")
	formatStr, _ := cmd.Flags().GetString("format")

	format, err := report.ParseFormat(formatStr)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Scanning: %s -> %s (%s)\n", path, output, format)

	cfg, err := config.LoadConfigFromDir(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := mergeScanFlags(cmd, cfg); err != nil {
		return err
	}

	if w := display.ConfigWarning(cfg.Path, cfg.Warnings); w != nil {
		w.Display(errOut, logger.IsTerminal(errOut))
	}

	log := logger.NewConsoleLogger(errOut, cfg.LogLevel)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	result, err := scanner.New(log).Scan(ctx, path, cfg.ScanConfig())
	if err != nil {
		return err
	}

	colorOutput := output == report.Stdout && logger.IsTerminal(out)
	data, err := report.Render(result.Issues, format, colorOutput)
	if err != nil {
		return err
	}
	if err := report.Write(output, data, out); err != nil {
		return err
	}
	if output != report.Stdout {
		fmt.Fprintf(out, "Wrote %s (%d issues)\n", output, len(result.Issues))
	}

	if cfg.History.Enabled {
		if err := recordRun(ctx, cfg.HistoryDBPath(path), result); err != nil {
			// The report is already written; history is best effort
			log.LogWarn(fmt.Sprintf("History not recorded: %v", err))
		} else {
			log.LogInfo(fmt.Sprintf("Recorded run %s", result.RunID))
		}
	}

	return nil
}

// mergeScanFlags applies explicitly set flags over the loaded configuration.
func mergeScanFlags(cmd *cobra.Command, cfg *config.Config) error {
	var ignorePtr *[]string
	if cmd.Flags().Changed("ignore") {
		ignore, _ := cmd.Flags().GetStringSlice("ignore")
		ignorePtr = &ignore
	}

	var largeFileKBPtr *uint
	if cmd.Flags().Changed("large-file-kb") {
		kb, _ := cmd.Flags().GetUint("large-file-kb")
		largeFileKBPtr = &kb
	}

	var workersPtr *int
	if cmd.Flags().Changed("workers") {
		workers, _ := cmd.Flags().GetInt("workers")
		workersPtr = &workers
	}

	var logLevelPtr *string
	if cmd.Flags().Changed("log-level") {
		level, _ := cmd.Flags().GetString("log-level")
		logLevelPtr = &level
	}

	var recordPtr *bool
	if cmd.Flags().Changed("record") {
		record, _ := cmd.Flags().GetBool("record")
		recordPtr = &record
	}

	cfg.MergeWithFlags(ignorePtr, largeFileKBPtr, workersPtr, logLevelPtr, recordPtr)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func recordRun(ctx context.Context, dbPath string, result *models.ScanResult) error {
	store, err := history.NewStore(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	return store.RecordRun(ctx, result)
}
