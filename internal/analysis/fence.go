package analysis

import "strings"

// StripFence removes a single ``` or ```markdown fence wrapping the whole
// reply. Fences inside the text are left alone.
func StripFence(input string) string {
	clean := strings.TrimSpace(input)
	if !strings.HasPrefix(clean, "```") || !strings.HasSuffix(clean, "```") || len(clean) < 6 {
		return input
	}

	body := strings.TrimPrefix(clean, "```")
	// only a language tag may follow the opening backticks
	nl := strings.IndexByte(body, '\n')
	if nl < 0 {
		return input
	}
	switch lang := strings.TrimSpace(body[:nl]); lang {
	case "", "markdown", "md":
	default:
		return input
	}
	body = strings.TrimSuffix(body[nl+1:], "```")
	if strings.Contains(body, "```") {
		return input
	}
	return strings.TrimSpace(body)
}
