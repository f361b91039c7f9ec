package cmd

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/harrison/nextaudit/internal/config"
	"github.com/harrison/nextaudit/internal/models"
	"github.com/harrison/nextaudit/internal/scanner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readReport(t *testing.T, path string) []models.Issue {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc struct {
		Issues []models.Issue `json:"issues"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	require.NotNil(t, doc.Issues, "issues must be a list, never null")
	return doc.Issues
}

func TestScanWritesJSONReport(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, map[string]string{
		"index.html":           "<html><head></head><body><img src=\"a.png\"></body></html>",
		"node_modules/lib.js":  "el.dangerouslySetInnerHTML = x",
		"components/Card.jsx":  "<img src=\"b.png\" alt=\"b\">",
		".cache/dangerous.tsx": "dangerouslySetInnerHTML",
	})
	output := filepath.Join(t.TempDir(), "report.json")

	out, _, err := execute(t, "scan", "--path", root, "--output", output)
	require.NoError(t, err)
	assert.Contains(t, out, "Scanning: "+root)
	assert.Contains(t, out, "Wrote "+output+" (2 issues)")

	issues := readReport(t, output)
	require.Len(t, issues, 2)

	ids := []string{issues[0].ID, issues[1].ID}
	assert.ElementsMatch(t, []string{"a11y::viewport_missing", "a11y::img_missing_alt"}, ids)
	for _, issue := range issues {
		assert.True(t, strings.HasPrefix(issue.Message, filepath.Join(root, "index.html")+":"), issue.Message)
	}
}

func TestScanEmptyProjectWritesEmptyList(t *testing.T) {
	root := t.TempDir()
	output := filepath.Join(t.TempDir(), "report.json")

	_, _, err := execute(t, "scan", "-p", root, "--output", output)
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"issues\": []\n}\n", string(data))
}

func TestScanTextToStdout(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, map[string]string{
		"page.tsx": "<div dangerouslySetInnerHTML={{__html: x}} />",
	})

	out, _, err := execute(t, "scan", "-p", root, "--output", "-", "--format", "text")
	require.NoError(t, err)

	assert.Contains(t, out, "[high] sec::dangerous_html - ")
	assert.Contains(t, out, "usage of dangerouslySetInnerHTML (possible XSS)")
	assert.NotContains(t, out, "Wrote ")
}

func TestScanIgnoreFlagReplacesDefaults(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, map[string]string{
		"node_modules/widget.jsx": "dangerouslySetInnerHTML",
		"legacy/old.js":           "dangerouslySetInnerHTML",
	})
	output := filepath.Join(t.TempDir(), "report.json")

	_, _, err := execute(t, "scan", "-p", root, "--output", output, "--ignore", "legacy")
	require.NoError(t, err)

	issues := readReport(t, output)
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0].Message, "widget.jsx")
}

func TestScanConfigFileThreshold(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, map[string]string{
		config.FileName: "thresholds:\n  large_file_kb: 1\n",
		"bundle.js":     strings.Repeat("x", 2048),
	})
	output := filepath.Join(t.TempDir(), "report.json")

	_, _, err := execute(t, "scan", "-p", root, "--output", output)
	require.NoError(t, err)

	issues := readReport(t, output)
	require.Len(t, issues, 1)
	assert.Equal(t, "perf::large_file", issues[0].ID)
	assert.Contains(t, issues[0].Message, "(~2 KB)")

	// The flag wins over the file
	_, _, err = execute(t, "scan", "-p", root, "--output", output, "--large-file-kb", "4")
	require.NoError(t, err)
	assert.Empty(t, readReport(t, output))
}

func TestScanMalformedConfigWarns(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, map[string]string{
		config.FileName: "thresholds:\n  large_file_kb: lots\n",
	})
	output := filepath.Join(t.TempDir(), "report.json")

	_, errOut, err := execute(t, "scan", "-p", root, "--output", output)
	require.NoError(t, err)
	assert.Contains(t, errOut, "configuration field ignored")
	assert.Contains(t, errOut, "large_file_kb")
}

func TestScanRejectsBadFormat(t *testing.T) {
	_, _, err := execute(t, "scan", "-p", t.TempDir(), "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown report format")
}

func TestScanRejectsZeroThreshold(t *testing.T) {
	_, _, err := execute(t, "scan", "-p", t.TempDir(), "--output", "-", "--large-file-kb", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestScanRejectsOverflowingThreshold(t *testing.T) {
	_, _, err := execute(t, "scan", "-p", t.TempDir(), "--output", "-", "--large-file-kb", "18446744073709551615")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "large_file_kb must be <=")
}

func TestScanMissingRoot(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")
	output := filepath.Join(t.TempDir(), "report.json")

	_, _, err := execute(t, "scan", "-p", missing, "--output", output)
	require.Error(t, err)
	assert.True(t, errors.Is(err, scanner.ErrRootNotFound))

	_, statErr := os.Stat(output)
	assert.True(t, os.IsNotExist(statErr), "no report is written for a failed scan")
}

func TestScanRecordAndHistory(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, map[string]string{
		"index.html": "<img src=x>",
	})
	output := filepath.Join(t.TempDir(), "report.json")

	out, _, err := execute(t, "history", "-p", root)
	require.NoError(t, err)
	assert.Contains(t, out, "No recorded scans")
	_, statErr := os.Stat(filepath.Join(root, config.DefaultHistoryDBPath))
	assert.True(t, os.IsNotExist(statErr), "listing must not create the database")

	_, _, err = execute(t, "scan", "-p", root, "--output", output, "--record")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(root, config.DefaultHistoryDBPath))
	require.NoError(t, err)

	// The history directory is hidden, so a second scan does not see it
	_, _, err = execute(t, "scan", "-p", root, "--output", output, "--record")
	require.NoError(t, err)
	assert.Len(t, readReport(t, output), 2)

	out, _, err = execute(t, "history", "-p", root)
	require.NoError(t, err)
	assert.Contains(t, out, "Recorded scans (2)")
	assert.Contains(t, out, "1 found, 1 evaluated, 0 skipped")
	assert.Contains(t, out, "Issues: 2")

	out, _, err = execute(t, "history", "-p", root, "--limit", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Recorded scans (1)")
}

func TestHistoryShowRun(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, map[string]string{
		"a.jsx": "dangerouslySetInnerHTML",
	})
	output := filepath.Join(t.TempDir(), "report.json")

	_, _, err := execute(t, "scan", "-p", root, "--output", output, "--record")
	require.NoError(t, err)

	out, _, err := execute(t, "history", "-p", root)
	require.NoError(t, err)

	// First token after the header is the run id
	lines := strings.Split(out, "\n")
	var runID string
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) >= 2 && strings.Count(fields[0], "-") == 4 {
			runID = fields[0]
			break
		}
	}
	require.NotEmpty(t, runID)

	out, _, err = execute(t, "history", "-p", root, "--run", runID[:8])
	require.NoError(t, err)
	assert.Contains(t, out, "[high] sec::dangerous_html - ")

	_, _, err = execute(t, "history", "-p", root, "--run", "zzzzzzzz")
	assert.Error(t, err)
}
