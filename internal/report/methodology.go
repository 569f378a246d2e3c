package report

import (
	"bytes"
	_ "embed"
	"html/template"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

//go:embed methodology.md
var methodologySource []byte

var (
	methodologyOnce sync.Once
	methodologyHTML template.HTML
)

// Methodology returns the methodology notes rendered to HTML.
func Methodology() template.HTML {
	methodologyOnce.Do(func() {
		html, err := RenderMarkdown(methodologySource)
		if err != nil {
			html = template.HTML(template.HTMLEscapeString(string(methodologySource)))
		}
		methodologyHTML = html
	})
	return methodologyHTML
}

// RenderMarkdown converts Markdown to HTML. Raw HTML in the source is
// omitted.
func RenderMarkdown(src []byte) (template.HTML, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Typographer))
	var buf bytes.Buffer
	if err := md.Convert(src, &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}
