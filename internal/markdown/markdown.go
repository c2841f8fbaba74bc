// Package markdown renders LLM generated plans to HTML.
package markdown

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

//nolint:gochecknoglobals // goldmark.Markdown is safe for concurrent use.
var md = goldmark.New(
	goldmark.WithExtensions(extension.Table, extension.Strikethrough),
	// Soft line breaks are kept because plans are often written one exercise per line without blank lines.
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// Render converts source to HTML. Raw HTML in source is omitted from the output.
func Render(source string) string {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		// Converting to a bytes.Buffer only fails on writer errors, which bytes.Buffer never returns.
		return ""
	}
	return buf.String()
}
