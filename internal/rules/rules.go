// Package rules holds the fixed heuristic rule set and the per-file evaluator.
//
// Rules are textual checks over decoded file content; none of them parses
// HTML or JavaScript. Each rule applies to a set of file extensions (or to
// every file) and emits issues in a fixed order so results are testable.
package rules

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/harrison/nextaudit/internal/config"
	"github.com/harrison/nextaudit/internal/models"
)

// Rule identifiers
const (
	IDViewportMissing = "a11y::viewport_missing"
	IDLargeFile       = "perf::large_file"
	IDDangerousHTML   = "sec::dangerous_html"
	IDImgMissingAlt   = "a11y::img_missing_alt"
)

// Literal patterns matched against file content
const (
	viewportMeta  = `<meta name="viewport"`
	dangerousHTML = "dangerouslySetInnerHTML"
	imgOpen       = "<img"
	altAttribute  = "alt="
	tagTerminator = ">"
	bytesPerKB    = 1024.0
)

// Rule is a single content check.
// Extensions lists the lowercase extensions (without dot) the rule applies to;
// an empty list means every file.
type Rule struct {
	ID          string
	Severity    string
	Title       string
	Extensions  []string
	Description string
	check       func(file *File, cfg config.ScanConfig) []models.Issue
}

// File is the decoded content of one candidate file.
type File struct {
	DisplayPath string
	Ext         string
	Content     string
}

// AppliesTo reports whether the rule runs for a file with the given extension.
func (r Rule) AppliesTo(ext string) bool {
	if len(r.Extensions) == 0 {
		return true
	}
	for _, e := range r.Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// All returns the rule set in evaluation order.
func All() []Rule {
	return []Rule{
		{
			ID:          IDViewportMissing,
			Severity:    models.SeverityWarning,
			Title:       "Missing viewport meta tag",
			Extensions:  []string{"html", "htm"},
			Description: `HTML documents should declare <meta name="viewport"> so mobile browsers scale the page.`,
			check:       checkViewport,
		},
		{
			ID:          IDLargeFile,
			Severity:    models.SeverityWarning,
			Title:       "Large script file",
			Extensions:  []string{"js", "ts", "jsx", "tsx"},
			Description: "Script files above the configured size threshold slow down parsing and bundling.",
			check:       checkLargeFile,
		},
		{
			ID:          IDDangerousHTML,
			Severity:    models.SeverityHigh,
			Title:       "dangerouslySetInnerHTML usage",
			Description: "Injecting raw HTML bypasses React escaping and is a common XSS vector.",
			check:       checkDangerousHTML,
		},
		{
			ID:          IDImgMissingAlt,
			Severity:    models.SeverityWarning,
			Title:       "Image without alt attribute",
			Extensions:  []string{"html", "htm", "jsx", "tsx"},
			Description: "Every <img> needs an alt attribute for screen readers.",
			check:       checkImgAlt,
		},
	}
}

// Extension returns the lowercase extension of path without the leading dot.
func Extension(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}

// Apply runs every applicable rule against file, in rule order.
func Apply(file *File, cfg config.ScanConfig) []models.Issue {
	var issues []models.Issue
	for _, rule := range All() {
		if !rule.AppliesTo(file.Ext) {
			continue
		}
		issues = append(issues, rule.check(file, cfg)...)
	}
	return issues
}

func newIssue(id, severity, format string, args ...interface{}) models.Issue {
	return models.Issue{ID: id, Severity: severity, Message: fmt.Sprintf(format, args...)}
}

func checkViewport(file *File, _ config.ScanConfig) []models.Issue {
	if strings.Contains(file.Content, viewportMeta) {
		return nil
	}
	return []models.Issue{
		newIssue(IDViewportMissing, models.SeverityWarning, "%s: missing <meta name=\"viewport\">", file.DisplayPath),
	}
}

func checkLargeFile(file *File, cfg config.ScanConfig) []models.Issue {
	kb := float64(len(file.Content)) / bytesPerKB
	if kb <= cfg.SoftThresholdKB() {
		return nil
	}
	return []models.Issue{
		newIssue(IDLargeFile, models.SeverityWarning, "%s: large file (~%.0f KB)", file.DisplayPath, math.Round(kb)),
	}
}

func checkDangerousHTML(file *File, _ config.ScanConfig) []models.Issue {
	if !strings.Contains(file.Content, dangerousHTML) {
		return nil
	}
	return []models.Issue{
		newIssue(IDDangerousHTML, models.SeverityHigh, "%s: usage of dangerouslySetInnerHTML (possible XSS)", file.DisplayPath),
	}
}

// checkImgAlt emits one issue per terminated <img ...> tag lacking alt=.
// An <img with no following '>' is ignored.
func checkImgAlt(file *File, _ config.ScanConfig) []models.Issue {
	var issues []models.Issue
	content := file.Content
	offset := 0
	for {
		idx := strings.Index(content[offset:], imgOpen)
		if idx < 0 {
			break
		}
		start := offset + idx
		offset = start + len(imgOpen)

		end := strings.Index(content[start:], tagTerminator)
		if end < 0 {
			continue
		}
		tag := content[start : start+end+len(tagTerminator)]
		if !strings.Contains(tag, altAttribute) {
			issues = append(issues,
				newIssue(IDImgMissingAlt, models.SeverityWarning, "%s: <img> tag without alt attribute", file.DisplayPath))
		}
	}
	return issues
}
