package render

import "html/template"

// Markup is HTML produced by a Renderer. It is trusted as-is: nothing in the
// default pipeline escapes or sanitizes the source text, so any markup that
// was present in the input reaches the browser. Run it through Sanitize when
// the input is not under your control.
type Markup string

// HTML hands the markup to html/template without escaping.
func (m Markup) HTML() template.HTML {
	return template.HTML(m)
}

func (m Markup) String() string {
	return string(m)
}

// Renderer turns a markdown document into Markup.
type Renderer interface {
	Render(markdown string) Markup
}
