package ai

import (
	"regexp"
	"strings"
)

// listMarker matches a leading "1." or "12)" list marker followed by
// whitespace or the end of the line.
var listMarker = regexp.MustCompile(`^\d{1,3}[.)](\s+|$)`)

// ParseItems splits a generation response into posts: one post per
// non-blank line, with surrounding whitespace and a leading numbered-list
// marker removed. A response wrapped in a markdown code fence is unwrapped
// first. Lines without a marker are kept verbatim.
func ParseItems(raw string) []string {
	var items []string
	for _, line := range strings.Split(stripCodeFence(raw), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = strings.TrimSpace(listMarker.ReplaceAllString(line, ""))
		if line == "" {
			continue
		}
		items = append(items, line)
	}
	return items
}

// stripCodeFence removes a ``` fence (with optional language tag) wrapping
// the whole of s.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)

	rest, found := strings.CutPrefix(s, "```")
	if !found {
		return s
	}

	// Drop the rest of the opening fence line, e.g. "text" in "```text".
	if idx := strings.IndexByte(rest, '\n'); idx >= 0 {
		rest = rest[idx+1:]
	} else {
		rest = ""
	}

	rest = strings.TrimSpace(rest)
	rest = strings.TrimSuffix(rest, "```")
	return strings.TrimSpace(rest)
}
