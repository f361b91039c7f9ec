package logger

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/harrison/nextaudit/internal/models"
)

// severityOrder is the display order of severity counts, most severe first.
var severityOrder = []string{models.SeverityHigh, models.SeverityWarning, models.SeverityInfo}

// SeverityColor returns the color used for a severity label.
// Red: high, Yellow: warning, Cyan: info.
func SeverityColor(severity string) *color.Color {
	switch severity {
	case models.SeverityHigh:
		return color.New(color.FgRed, color.Bold)
	case models.SeverityWarning:
		return color.New(color.FgYellow)
	case models.SeverityInfo:
		return color.New(color.FgCyan)
	default:
		return color.New(color.FgWhite)
	}
}

// formatSeverityCounts formats "high: N, warning: N, info: N".
// Non-zero counts are colored by severity when colorOutput is set.
func formatSeverityCounts(counts map[string]int, colorOutput bool) string {
	parts := make([]string, 0, len(severityOrder))
	for _, severity := range severityOrder {
		part := fmt.Sprintf("%s: %d", severity, counts[severity])
		if colorOutput && counts[severity] > 0 {
			part = SeverityColor(severity).Sprint(part)
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, ", ")
}
