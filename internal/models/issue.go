package models

// Severity levels reported for an issue
const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
	SeverityHigh    = "high"
)

// Issue is a single finding produced by a rule.
// ID is a stable "category::check" tag such as "a11y::img_missing_alt".
type Issue struct {
	ID       string `json:"id"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// IsValidSeverity reports whether s is one of the known severity levels.
func IsValidSeverity(s string) bool {
	switch s {
	case SeverityInfo, SeverityWarning, SeverityHigh:
		return true
	default:
		return false
	}
}

// CountBySeverity tallies issues per severity level.
func CountBySeverity(issues []Issue) map[string]int {
	counts := map[string]int{
		SeverityInfo:    0,
		SeverityWarning: 0,
		SeverityHigh:    0,
	}
	for _, issue := range issues {
		counts[issue.Severity]++
	}
	return counts
}
