package display

import (
	"fmt"
	"io"
	"strings"
)

const (
	ansiYellow = "\x1b[33m"
	ansiReset  = "\x1b[0m"
)

// Warning represents a user-facing warning message
type Warning struct {
	Title      string   // Main warning title
	File       string   // File the warning is about (optional)
	Details    []string // One line per problem (optional)
	Suggestion string   // Action to take (optional)
}

// Display writes the warning to out, in yellow when colorOutput is set.
func (w Warning) Display(out io.Writer, colorOutput bool) {
	var b strings.Builder

	if colorOutput {
		b.WriteString(ansiYellow)
	}
	b.WriteString("⚠️  Warning: ")
	b.WriteString(w.Title)
	b.WriteString("\n")

	if w.File != "" {
		b.WriteString("    File: ")
		b.WriteString(w.File)
		b.WriteString("\n")
	}

	for i, detail := range w.Details {
		fmt.Fprintf(&b, "      %d. %s\n", i+1, detail)
	}

	if w.Suggestion != "" {
		b.WriteString("    Suggestion:\n")
		b.WriteString("    ")
		b.WriteString(w.Suggestion)
		b.WriteString("\n")
	}

	if colorOutput {
		b.WriteString(ansiReset)
	}

	fmt.Fprint(out, b.String())
}

// ConfigWarning builds the warning shown when configuration fields fell back
// to their defaults. It returns nil when there is nothing to report.
func ConfigWarning(path string, problems []string) *Warning {
	if len(problems) == 0 {
		return nil
	}

	title := "1 configuration field ignored"
	if len(problems) > 1 {
		title = fmt.Sprintf("%d configuration fields ignored", len(problems))
	}

	return &Warning{
		Title:      title,
		File:       path,
		Details:    problems,
		Suggestion: "Run 'nextaudit config schema' to see the expected layout",
	}
}
