package models

import "time"

// SkipReason explains why a file contributed no issues without being evaluated
type SkipReason string

// Skip reasons recorded by the rule evaluator
const (
	SkipNone       SkipReason = ""           // File was evaluated
	SkipOversized  SkipReason = "oversized"  // File exceeded the hard size ceiling
	SkipBinary     SkipReason = "binary"     // File contained a NUL byte
	SkipUnreadable SkipReason = "unreadable" // File could not be stat'ed or read
)

// FileCandidate is a regular file discovered by enumeration.
type FileCandidate struct {
	Path        string // Path relative to the scan root, as seen by the filesystem abstraction
	DisplayPath string // Path used in issue messages (scan root joined with Path)
}

// FileOutcome is the result of evaluating a single file.
// A skipped file carries a non-empty Skip and no issues; an evaluated file
// may still have zero issues.
type FileOutcome struct {
	Path   string
	Issues []Issue
	Skip   SkipReason
	Err    error // Underlying error for SkipUnreadable, nil otherwise
}

// Skipped reports whether the file was skipped rather than evaluated.
func (o FileOutcome) Skipped() bool {
	return o.Skip != SkipNone
}

// ScanStats summarizes what happened during one scan
type ScanStats struct {
	FilesFound     int                // Regular files yielded by enumeration
	FilesEvaluated int                // Files that ran through the rule set
	FilesSkipped   map[SkipReason]int // Files skipped, by reason
	WalkErrors     int                // Entries that could not be traversed
	Workers        int                // Size of the evaluation pool
}

// ScanResult is the merged output of one scan invocation.
// Issue order across files is unspecified; issues of a single file keep
// the order the rule set produced them in.
type ScanResult struct {
	RunID     string        `json:"run_id"`
	Root      string        `json:"root"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Issues    []Issue       `json:"issues"`
	Stats     ScanStats     `json:"-"`
}
