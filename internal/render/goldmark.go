package render

import (
	"bytes"
	"html/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var md = goldmark.New(
	goldmark.WithRendererOptions(
		html.WithUnsafe(),
	),
	goldmark.WithExtensions(extension.GFM))

// Goldmark renders CommonMark with GFM extensions. Raw HTML in the source is
// passed through, same as the pipeline.
type Goldmark struct{}

func (Goldmark) Render(markdown string) Markup {
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return Markup(paragraphOpen + template.HTMLEscapeString(markdown) + paragraphClose)
	}
	return Markup(buf.String())
}
