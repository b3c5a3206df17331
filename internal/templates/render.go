package templates

import "strings"

// render replaces {{name}} placeholders. Unknown placeholders render empty.
func render(tmpl string, vars map[string]string) string {
	var b strings.Builder
	b.Grow(len(tmpl))

	rest := tmpl
	for {
		start := strings.Index(rest, "{{")
		if start == -1 {
			b.WriteString(rest)
			break
		}
		end := strings.Index(rest[start:], "}}")
		if end == -1 {
			b.WriteString(rest)
			break
		}
		b.WriteString(rest[:start])
		name := strings.TrimSpace(rest[start+2 : start+end])
		b.WriteString(vars[name])
		rest = rest[start+end+2:]
	}
	return b.String()
}
