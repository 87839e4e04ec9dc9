package render

import (
	"regexp"
)

// Pass is one rewrite step of the pipeline.
type Pass struct {
	Name string
	re   *regexp.Regexp
	repl string
}

func (p Pass) Apply(text string) string {
	return p.re.ReplaceAllString(text, p.repl)
}

func pass(name, pattern, repl string) Pass {
	return Pass{Name: name, re: regexp.MustCompile(pattern), repl: repl}
}

const (
	paragraphOpen  = `<p class="my-4">`
	paragraphClose = `</p>`
)

// Pipeline renders markdown with an ordered list of regular rewrites. Later
// passes see the markup written by earlier ones, so the order is part of the
// output format and must not be changed.
//
// Known quirks kept for compatibility:
//   - ordered and unordered items both end up in a <ul>;
//   - inline code runs before fenced code, so most ``` blocks are eaten by
//     the single-backtick pass before the fenced pass can see them;
//   - italics run before list items, so "* a *b*" pairs the bullet star;
//   - join-items eats the newline after a list, so a "> " line directly
//     after one is not a blockquote;
//   - nothing is escaped.
type Pipeline struct {
	passes []Pass
}

// Whitespace and line ends follow the browser regex engine the markup was
// first produced with: \s also covers \v, Unicode spaces and BOM, and a line
// also ends at \r, U+2028 and U+2029.
const (
	space    = `[\s\v\p{Zs}\x{FEFF}\x{2028}\x{2029}]`
	lineChar = `[^\n\r\x{2028}\x{2029}]`
	// line start; the captured terminator must be written back
	lineStart = `(?m)(^|[\r\x{2028}\x{2029}])`
)

var defaultPasses = []Pass{
	// headers, longest marker first
	pass("h3", lineStart+`### (`+lineChar+`*)`, `${1}<h3 class="text-xl font-bold mt-4 mb-2">${2}</h3>`),
	pass("h2", lineStart+`## (`+lineChar+`*)`, `${1}<h2 class="text-2xl font-bold mt-6 mb-3">${2}</h2>`),
	pass("h1", lineStart+`# (`+lineChar+`*)`, `${1}<h1 class="text-3xl font-bold mt-8 mb-4">${2}</h1>`),

	pass("bold-italic", `\*\*\*(`+lineChar+`*?)\*\*\*`, `<strong><em>${1}</em></strong>`),
	pass("bold", `\*\*(`+lineChar+`*?)\*\*`, `<strong>${1}</strong>`),
	pass("italic", `\*(`+lineChar+`*?)\*`, `<em>${1}</em>`),

	pass("bullet-item", lineStart+space+`*[-+*]`+space+`+(`+lineChar+`*)`, `${1}<li class="ml-4">${2}</li>`),
	pass("numbered-item", lineStart+space+`*\d+\.`+space+`+(`+lineChar+`*)`, `${1}<li class="ml-4">${2}</li>`),
	pass("join-items", `(<li`+lineChar+`*?>`+lineChar+`*?</li>)`+space+`*\n`, `${1}`),
	pass("wrap-items", `(<li`+lineChar+`*?>`+lineChar+`*?</li>)+`, `<ul class="list-disc my-4">${0}</ul>`),

	pass("inline-code", "`([^`]+)`", `<code class="bg-gray-100 px-1 rounded">${1}</code>`),
	pass("fenced-code", "```([^`]+)```", `<pre class="bg-gray-100 p-3 rounded my-4"><code>${1}</code></pre>`),

	pass("link", `\[([^\]]+)\]\(([^)]+)\)`, `<a href="${2}" class="text-blue-600 hover:underline">${1}</a>`),

	pass("blockquote", lineStart+`> (`+lineChar+`*)`, `${1}<blockquote class="border-l-4 border-gray-300 pl-4 my-4 italic">${2}</blockquote>`),

	pass("paragraph", `\n`+space+`*\n`, paragraphClose+paragraphOpen),
	pass("line-break", `\n`, `<br/>`),
}

// Default is the pipeline used by Render.
var Default = Pipeline{passes: defaultPasses}

// Render converts markdown with the default pipeline.
func Render(markdown string) Markup {
	return Default.Render(markdown)
}

// Passes returns a copy of the pipeline's passes in application order.
func (p Pipeline) Passes() []Pass {
	out := make([]Pass, len(p.passes))
	copy(out, p.passes)
	return out
}

func (p Pipeline) Render(markdown string) Markup {
	return p.Trace(markdown, nil)
}

// Trace renders like Render and calls fn with the intermediate text after
// every pass. The final paragraph wrap is reported as "wrap".
func (p Pipeline) Trace(markdown string, fn func(name, text string)) Markup {
	text := markdown
	for _, ps := range p.passes {
		text = ps.Apply(text)
		if fn != nil {
			fn(ps.Name, text)
		}
	}
	text = paragraphOpen + text + paragraphClose
	if fn != nil {
		fn("wrap", text)
	}
	return Markup(text)
}
