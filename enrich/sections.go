// ABOUTME: Ordered-section parser for AI completion output
// ABOUTME: Splits text on ALL-CAPS headers into a structured record
package enrich

import (
	"strings"
	"unicode"
)

// Section is one header-delimited block of AI output.
type Section struct {
	Header string
	Body   string
}

// ParseSections splits text into ordered sections. A section starts at a
// line consisting solely of an ALL-CAPS header (letters, digits, spaces,
// underscores; at least two characters; no lowercase) and runs until the
// next header or end of text. Text before the first header is returned
// under an empty header.
func ParseSections(text string) []Section {
	var sections []Section
	current := Section{}
	var body []string

	flush := func() {
		current.Body = strings.TrimSpace(strings.Join(body, "\n"))
		if current.Header != "" || current.Body != "" {
			sections = append(sections, current)
		}
		body = nil
	}

	for _, line := range strings.Split(text, "\n") {
		if header, ok := parseHeader(line); ok {
			flush()
			current = Section{Header: header}
			continue
		}
		body = append(body, line)
	}
	flush()

	return sections
}

// SectionMap indexes sections by header. Later duplicate headers win.
func SectionMap(text string) map[string]string {
	out := make(map[string]string)
	for _, s := range ParseSections(text) {
		if s.Header != "" {
			out[s.Header] = s.Body
		}
	}
	return out
}

func parseHeader(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	trimmed = strings.TrimSuffix(trimmed, ":")
	if len(trimmed) < 2 {
		return "", false
	}

	hasLetter := false
	for _, r := range trimmed {
		switch {
		case unicode.IsUpper(r):
			hasLetter = true
		case unicode.IsDigit(r), r == ' ', r == '_':
		default:
			return "", false
		}
	}
	if !hasLetter {
		return "", false
	}
	return trimmed, true
}
