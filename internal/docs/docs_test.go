package docs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/harrison/nextaudit/internal/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogueDocumentsEveryRule(t *testing.T) {
	ids, err := RuleIDs(Markdown())
	require.NoError(t, err)

	var want []string
	for _, rule := range rules.All() {
		want = append(want, rule.ID)
	}
	assert.ElementsMatch(t, want, ids)
}

func TestRuleIDs(t *testing.T) {
	md := []byte("# Title\n\n## a::b\n\ntext\n\n## Not a rule\n\n### c::d\n\n## e::f\n")
	ids, err := RuleIDs(md)
	require.NoError(t, err)
	assert.Equal(t, []string{"a::b", "e::f"}, ids)
}

func TestRenderHTML(t *testing.T) {
	page, err := RenderHTML(Markdown())
	require.NoError(t, err)

	html := string(page)
	assert.True(t, strings.HasPrefix(html, "<!DOCTYPE html>"))
	assert.Contains(t, html, `<meta name="viewport"`)
	assert.Contains(t, html, "<table>")
	assert.Contains(t, html, "<h2>sec::dangerous_html</h2>")
	assert.True(t, strings.HasSuffix(html, "</html>\n"))
}

func TestMarkdownReturnsCopy(t *testing.T) {
	md := Markdown()
	md[0] = 'X'
	assert.Equal(t, byte('#'), Markdown()[0])
}

func TestWrite(t *testing.T) {
	root := t.TempDir()

	written, err := Write(root, false)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "docs", "implementations.md")}, written)

	data, err := os.ReadFile(written[0])
	require.NoError(t, err)
	assert.Equal(t, Markdown(), data)
	assert.NoFileExists(t, filepath.Join(root, "docs", "implementations.html"))
}

func TestWriteWithHTMLOverwrites(t *testing.T) {
	root := t.TempDir()
	mdPath := filepath.Join(root, "docs", "implementations.md")
	require.NoError(t, os.MkdirAll(filepath.Dir(mdPath), 0755))
	require.NoError(t, os.WriteFile(mdPath, []byte("stale"), 0644))

	written, err := Write(root, true)
	require.NoError(t, err)
	require.Len(t, written, 2)

	data, err := os.ReadFile(mdPath)
	require.NoError(t, err)
	assert.NotEqual(t, "stale", string(data))
	assert.FileExists(t, filepath.Join(root, "docs", "implementations.html"))
}
