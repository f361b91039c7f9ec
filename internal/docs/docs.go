// Package docs ships the rule catalogue and installs it into a project.
package docs

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// Install locations, relative to the working directory
const (
	Dir          = "docs"
	MarkdownFile = "implementations.md"
	HTMLFile     = "implementations.html"
)

//go:embed implementations.md
var catalogue []byte

const htmlHeader = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>nextaudit rules</title>
</head>
<body>
`

const htmlFooter = `</body>
</html>
`

func newMarkdown() goldmark.Markdown {
	return goldmark.New(goldmark.WithExtensions(extension.Table))
}

// Markdown returns a copy of the embedded rule catalogue.
func Markdown() []byte {
	return append([]byte(nil), catalogue...)
}

// RenderHTML renders markdown as a standalone HTML page.
func RenderHTML(markdown []byte) ([]byte, error) {
	var body bytes.Buffer
	if err := newMarkdown().Convert(markdown, &body); err != nil {
		return nil, fmt.Errorf("failed to render markdown: %w", err)
	}

	var page bytes.Buffer
	page.WriteString(htmlHeader)
	page.Write(body.Bytes())
	page.WriteString(htmlFooter)
	return page.Bytes(), nil
}

// RuleIDs lists the rule ids documented by level-2 headings of markdown, in document order.
func RuleIDs(markdown []byte) ([]string, error) {
	doc := newMarkdown().Parser().Parse(text.NewReader(markdown))

	var ids []string
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if heading, ok := n.(*ast.Heading); ok && heading.Level == 2 {
			title := strings.TrimSpace(headingText(heading, markdown))
			if strings.Contains(title, "::") {
				ids = append(ids, title)
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk markdown: %w", err)
	}
	return ids, nil
}

func headingText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Segment.Value(source))
		}
	}
	return buf.String()
}

// Write installs the catalogue under root/docs, overwriting previous copies.
// With withHTML set the rendered page is written next to it.
// It returns the written paths.
func Write(root string, withHTML bool) ([]string, error) {
	dir := filepath.Join(root, Dir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dir, err)
	}

	mdPath := filepath.Join(dir, MarkdownFile)
	if err := os.WriteFile(mdPath, catalogue, 0644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", mdPath, err)
	}
	written := []string{mdPath}

	if withHTML {
		page, err := RenderHTML(catalogue)
		if err != nil {
			return written, err
		}
		htmlPath := filepath.Join(dir, HTMLFile)
		if err := os.WriteFile(htmlPath, page, 0644); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", htmlPath, err)
		}
		written = append(written, htmlPath)
	}

	return written, nil
}
