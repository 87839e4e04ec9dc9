package render

import "github.com/microcosm-cc/bluemonday"

var policy = newPolicy()

func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	// the pipeline styles everything through class attributes
	p.AllowAttrs("class").Globally()
	return p
}

// Sanitize strips scripts, event handlers and anything else outside a
// user-generated-content allow list, keeping class attributes.
func Sanitize(m Markup) Markup {
	return Markup(policy.Sanitize(string(m)))
}
