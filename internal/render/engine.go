package render

import (
	"fmt"
	"strings"
)

const (
	EnginePipeline = "pipeline"
	EngineGoldmark = "goldmark"
)

// Engines lists the names accepted by ByName.
func Engines() []string {
	return []string{EnginePipeline, EngineGoldmark}
}

// ByName returns the renderer registered under name.
func ByName(name string) (Renderer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", EnginePipeline:
		return Default, nil
	case EngineGoldmark:
		return Goldmark{}, nil
	default:
		return nil, fmt.Errorf("unknown render engine %q (want one of %s)", name, strings.Join(Engines(), ", "))
	}
}

type sanitized struct {
	Renderer
}

func (s sanitized) Render(markdown string) Markup {
	return Sanitize(s.Renderer.Render(markdown))
}

// Sanitized wraps r so that its output always goes through Sanitize.
func Sanitized(r Renderer) Renderer {
	return sanitized{r}
}
