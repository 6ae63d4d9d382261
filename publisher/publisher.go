// Package publisher turns a generated plan into what the page and the export need:
// sanitized HTML for display and a dated Markdown file for download.
package publisher

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// MarkdownContentType is sent with downloaded plans.
const MarkdownContentType = "text/markdown; charset=utf-8"

// Raw HTML in model output is dropped: goldmark renders it as an omitted comment
// unless html.WithUnsafe is set, and it is not.
var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// RenderHTML converts plan or chat Markdown for display.
func RenderHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ExportFilename follows 学习计划_{goal}_{YYYYMMDD}.md with the goal kept verbatim
// apart from characters a filesystem cannot hold.
func ExportFilename(goal string, now time.Time) string {
	return fmt.Sprintf("学习计划_%s_%s.md", safeName(goal), now.Format("20060102"))
}

// WriteExport writes the plan as UTF-8 into dir and returns the file path.
func WriteExport(dir, goal, plan string, now time.Time) (string, error) {
	if strings.TrimSpace(plan) == "" {
		return "", errors.New("plan is empty")
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, ExportFilename(goal, now))
	if err := os.WriteFile(path, []byte(plan), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func safeName(s string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", "\n", " ", "\r", "", ":", "_", "\x00", "")
	return strings.TrimSpace(r.Replace(s))
}
