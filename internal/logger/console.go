// Package logger provides console logging for nextaudit scans.
//
// ConsoleLogger writes timestamped, level-filtered lines and colorizes them
// when the destination is a terminal. It is safe for concurrent use.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/harrison/nextaudit/internal/models"
	"github.com/mattn/go-isatty"
)

// Log level constants for filtering
const (
	levelTrace int = 0
	levelDebug int = 1
	levelInfo  int = 2
	levelWarn  int = 3
	levelError int = 4
)

// ConsoleLogger logs scan progress to a writer with timestamps and thread safety.
// All output is prefixed with [HH:MM:SS] timestamps.
// Color output is enabled only for terminal output.
type ConsoleLogger struct {
	writer      io.Writer
	logLevel    string
	mutex       sync.Mutex
	colorOutput bool
}

// NewConsoleLogger creates a ConsoleLogger that writes to the provided io.Writer.
// If writer is nil, messages are silently discarded.
// Valid levels: trace, debug, info, warn, error (case-insensitive); anything else means "info".
func NewConsoleLogger(writer io.Writer, logLevel string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      writer,
		logLevel:    normalizeLogLevel(logLevel),
		colorOutput: IsTerminal(writer),
	}
}

// IsTerminal reports whether w is a terminal that should receive ANSI colors.
// NO_COLOR (honored by fatih/color) disables colors even on a TTY.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || f == nil {
		return false
	}
	if color.NoColor {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// normalizeLogLevel converts a log level string to lowercase and validates it.
// Returns "info" as default for empty or invalid levels.
func normalizeLogLevel(level string) string {
	normalized := strings.ToLower(strings.TrimSpace(level))

	switch normalized {
	case "trace", "debug", "info", "warn", "error":
		return normalized
	default:
		return "info"
	}
}

// logLevelToInt converts a log level string to its numeric value.
func logLevelToInt(level string) int {
	switch level {
	case "trace":
		return levelTrace
	case "debug":
		return levelDebug
	case "info":
		return levelInfo
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

func (cl *ConsoleLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(cl.logLevel)
}

// LogTrace logs a trace-level message.
func (cl *ConsoleLogger) LogTrace(message string) {
	cl.logWithLevel("TRACE", message)
}

// LogDebug logs a debug-level message.
func (cl *ConsoleLogger) LogDebug(message string) {
	cl.logWithLevel("DEBUG", message)
}

// LogInfo logs an info-level message.
func (cl *ConsoleLogger) LogInfo(message string) {
	cl.logWithLevel("INFO", message)
}

// LogWarn logs a warning-level message.
func (cl *ConsoleLogger) LogWarn(message string) {
	cl.logWithLevel("WARN", message)
}

// LogError logs an error-level message.
func (cl *ConsoleLogger) LogError(message string) {
	cl.logWithLevel("ERROR", message)
}

// logWithLevel formats "[HH:MM:SS] [LEVEL] message" if filtering allows it.
func (cl *ConsoleLogger) logWithLevel(level string, message string) {
	if cl.writer == nil {
		return
	}
	if !cl.shouldLog(strings.ToLower(level)) {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	var formatted string
	if cl.colorOutput {
		formatted = fmt.Sprintf("[%s] [%s] %s\n", ts, colorLevel(level), message)
	} else {
		formatted = fmt.Sprintf("[%s] [%s] %s\n", ts, level, message)
	}

	cl.writer.Write([]byte(formatted))
}

func colorLevel(level string) string {
	switch level {
	case "TRACE":
		return color.New(color.FgHiBlack).Sprint(level)
	case "DEBUG":
		return color.New(color.FgCyan).Sprint(level)
	case "INFO":
		return color.New(color.FgBlue).Sprint(level)
	case "WARN":
		return color.New(color.FgYellow).Sprint(level)
	case "ERROR":
		return color.New(color.FgRed).Sprint(level)
	default:
		return level
	}
}

// LogScanStart logs the start of a scan at INFO level.
// Format: "[HH:MM:SS] [INFO] Scanning <root> with <n> workers"
func (cl *ConsoleLogger) LogScanStart(root string, workers int) {
	cl.LogInfo(fmt.Sprintf("Scanning %s with %d workers", root, workers))
}

// LogFileSkipped logs a file that contributed no issues because it was skipped, at DEBUG level.
func (cl *ConsoleLogger) LogFileSkipped(outcome models.FileOutcome) {
	if outcome.Err != nil {
		cl.LogDebug(fmt.Sprintf("Skipped %s (%s): %v", outcome.Path, outcome.Skip, outcome.Err))
		return
	}
	cl.LogDebug(fmt.Sprintf("Skipped %s (%s)", outcome.Path, outcome.Skip))
}

// LogWalkError logs an entry that could not be traversed, at DEBUG level.
func (cl *ConsoleLogger) LogWalkError(err error) {
	cl.LogDebug(fmt.Sprintf("Traversal: %v", err))
}

// LogScanComplete logs the scan summary at INFO level.
// Format: "[HH:MM:SS] [INFO] Scan complete: <n> files, <n> issues (high: N, warning: N, info: N) in <d>"
func (cl *ConsoleLogger) LogScanComplete(result *models.ScanResult) {
	if result == nil {
		return
	}

	counts := models.CountBySeverity(result.Issues)
	breakdown := formatSeverityCounts(counts, cl.colorOutput)
	skipped := 0
	for _, n := range result.Stats.FilesSkipped {
		skipped += n
	}

	cl.LogInfo(fmt.Sprintf("Scan complete: %d files (%d skipped), %d issues (%s) in %s",
		result.Stats.FilesFound, skipped, len(result.Issues), breakdown, formatDuration(result.Duration)))
}

// timestamp returns the current time formatted as "15:04:05" (HH:MM:SS).
func timestamp() string {
	return time.Now().Format("15:04:05")
}

// formatDuration converts a time.Duration to a short human-readable string.
// Examples: "850ms", "5s", "1m30s"
func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Minute:
		minutes := d / time.Minute
		seconds := (d % time.Minute) / time.Second
		if seconds == 0 {
			return fmt.Sprintf("%dm", minutes)
		}
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	case d >= time.Second:
		return fmt.Sprintf("%ds", int64(d.Seconds()))
	default:
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
}

// NoOpLogger discards all log messages.
// Useful for library callers and tests.
type NoOpLogger struct{}

// NewNoOpLogger creates a NoOpLogger instance.
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

// LogScanStart is a no-op implementation.
func (n *NoOpLogger) LogScanStart(root string, workers int) {}

// LogFileSkipped is a no-op implementation.
func (n *NoOpLogger) LogFileSkipped(outcome models.FileOutcome) {}

// LogWalkError is a no-op implementation.
func (n *NoOpLogger) LogWalkError(err error) {}

// LogScanComplete is a no-op implementation.
func (n *NoOpLogger) LogScanComplete(result *models.ScanResult) {}
