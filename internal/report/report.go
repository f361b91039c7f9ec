// Package report serializes scan issues and writes reports to disk.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/harrison/nextaudit/internal/logger"
	"github.com/harrison/nextaudit/internal/models"
)

// Format selects the report serialization
type Format string

// Supported report formats
const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Stdout is the output path that sends the report to standard output
const Stdout = "-"

// ParseFormat validates a format name (case-insensitive).
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatJSON:
		return FormatJSON, nil
	case FormatText:
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown report format %q (valid: json, text)", s)
	}
}

// document is the JSON report layout
type document struct {
	Issues []models.Issue `json:"issues"`
}

// JSON renders issues as {"issues": [...]} with two-space indentation.
// A nil slice is rendered as an empty list.
func JSON(issues []models.Issue) ([]byte, error) {
	if issues == nil {
		issues = []models.Issue{}
	}
	data, err := json.MarshalIndent(document{Issues: issues}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}
	return append(data, '\n'), nil
}

// Text renders one "[severity] id - message" line per issue.
// Severity labels are colored when colorOutput is set.
func Text(issues []models.Issue, colorOutput bool) []byte {
	var b bytes.Buffer
	for _, issue := range issues {
		label := "[" + issue.Severity + "]"
		if colorOutput {
			c := logger.SeverityColor(issue.Severity)
			c.EnableColor()
			label = c.Sprint(label)
		}
		fmt.Fprintf(&b, "%s %s - %s\n", label, issue.ID, issue.Message)
	}
	return b.Bytes()
}

// Render serializes issues in the requested format.
func Render(issues []models.Issue, format Format, colorOutput bool) ([]byte, error) {
	switch format {
	case FormatJSON:
		return JSON(issues)
	case FormatText:
		return Text(issues, colorOutput), nil
	default:
		return nil, fmt.Errorf("unknown report format %q", format)
	}
}
