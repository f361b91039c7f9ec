package rules

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/harrison/nextaudit/internal/config"
	"github.com/harrison/nextaudit/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func evaluate(t *testing.T, path string, content []byte, cfg config.ScanConfig) models.FileOutcome {
	t.Helper()
	fsys := memfs.New()
	require.NoError(t, util.WriteFile(fsys, path, content, 0644))
	return Evaluate(fsys, models.FileCandidate{Path: path, DisplayPath: "/root/" + path}, cfg)
}

func TestEvaluateHTML(t *testing.T) {
	outcome := evaluate(t, "test.html", []byte("<html><head></head><body></body></html>"), config.DefaultScanConfig())

	assert.False(t, outcome.Skipped())
	assert.NoError(t, outcome.Err)
	assert.Equal(t, "/root/test.html", outcome.Path)
	require.Len(t, outcome.Issues, 1)
	assert.Equal(t, IDViewportMissing, outcome.Issues[0].ID)
	assert.Equal(t, `/root/test.html: missing <meta name="viewport">`, outcome.Issues[0].Message)
}

func TestEvaluateCleanFile(t *testing.T) {
	outcome := evaluate(t, "app.js", []byte("console.log('ok')"), config.DefaultScanConfig())

	assert.False(t, outcome.Skipped())
	assert.Empty(t, outcome.Issues)
}

func TestEvaluateHardCeiling(t *testing.T) {
	cfg := config.NewScanConfig(nil, 1, 0)
	ceiling := int(cfg.HardCeilingBytes())

	t.Run("above ceiling is skipped", func(t *testing.T) {
		content := strings.Repeat("dangerouslySetInnerHTML ", ceiling/24+1)
		require.Greater(t, len(content), ceiling)

		outcome := evaluate(t, "huge.jsx", []byte(content), cfg)
		assert.Equal(t, models.SkipOversized, outcome.Skip)
		assert.Empty(t, outcome.Issues)
	})

	t.Run("at ceiling is evaluated", func(t *testing.T) {
		content := strings.Repeat("a", ceiling)

		outcome := evaluate(t, "big.js", []byte(content), cfg)
		assert.False(t, outcome.Skipped())
		require.Len(t, outcome.Issues, 1)
		assert.Equal(t, IDLargeFile, outcome.Issues[0].ID)
		assert.Equal(t, "/root/big.js: large file (~10 KB)", outcome.Issues[0].Message)
	})
}

func TestEvaluateBinary(t *testing.T) {
	content := []byte("<html>dangerouslySetInnerHTML\x00<img src=x></html>")
	outcome := evaluate(t, "page.html", content, config.DefaultScanConfig())

	assert.Equal(t, models.SkipBinary, outcome.Skip)
	assert.True(t, outcome.Skipped())
	assert.Empty(t, outcome.Issues)
}

func TestEvaluateInvalidUTF8(t *testing.T) {
	content := []byte("<div>\xff\xfe dangerouslySetInnerHTML</div>")
	outcome := evaluate(t, "widget.tsx", content, config.DefaultScanConfig())

	assert.False(t, outcome.Skipped())
	require.Len(t, outcome.Issues, 1)
	assert.Equal(t, IDDangerousHTML, outcome.Issues[0].ID)
}

func TestEvaluateInvalidBytesCountTowardsSize(t *testing.T) {
	// Each 0xFF byte decodes to a three-byte U+FFFD: 150 KB on disk, ~450 KB decoded
	content := []byte(strings.Repeat("\xff", 150*1024))
	outcome := evaluate(t, "bad.js", content, config.DefaultScanConfig())

	assert.False(t, outcome.Skipped())
	require.Len(t, outcome.Issues, 1)
	assert.Equal(t, IDLargeFile, outcome.Issues[0].ID)
	assert.Equal(t, "/root/bad.js: large file (~450 KB)", outcome.Issues[0].Message)
}

func TestDecodeLossy(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"valid text is unchanged", "<img alt=\"é\">", "<img alt=\"é\">"},
		{"one replacement per invalid byte", "a\xff\xfeb", "a\uFFFD\uFFFDb"},
		{"empty input", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, decodeLossy([]byte(tt.raw)))
		})
	}
}

func TestEvaluateMissingFile(t *testing.T) {
	outcome := Evaluate(memfs.New(), models.FileCandidate{Path: "gone.js", DisplayPath: "gone.js"}, config.DefaultScanConfig())

	assert.Equal(t, models.SkipUnreadable, outcome.Skip)
	assert.Error(t, outcome.Err)
	assert.Empty(t, outcome.Issues)
}

func TestEvaluateUnreadableFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks are bypassed when running as root")
	}

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "secret.jsx")
	require.NoError(t, os.WriteFile(path, []byte("dangerouslySetInnerHTML"), 0000))

	outcome := Evaluate(osfs.New(tmpDir), models.FileCandidate{Path: "secret.jsx", DisplayPath: path}, config.DefaultScanConfig())
	assert.Equal(t, models.SkipUnreadable, outcome.Skip)
	assert.Empty(t, outcome.Issues)
}

func TestEvaluateViewportToggle(t *testing.T) {
	without := evaluate(t, "index.html", []byte("<html><head></head></html>"), config.DefaultScanConfig())
	with := evaluate(t, "index.html", []byte(`<html><head><meta name="viewport" content="width=device-width"></head></html>`), config.DefaultScanConfig())

	assert.Equal(t, []string{IDViewportMissing}, ids(without.Issues))
	assert.Empty(t, with.Issues)
}
