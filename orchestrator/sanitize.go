package orchestrator

import (
	"strings"
	"unicode"
)

// sanitizePrompt collapses exotic Unicode space characters (no-break space,
// ideographic space, zero-width space, BOM and friends) into plain spaces and
// trims the result. Providers choke on some of these, and validation must see
// a prompt made only of them as blank.
func sanitizePrompt(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\u200b' || r == '\u200c' || r == '\u200d' || r == '\ufeff':
			b.WriteRune(' ')
		case r == '\n':
			b.WriteRune('\n')
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// isBlank reports whether the prompt is empty after sanitation.
func isBlank(s string) bool {
	return sanitizePrompt(s) == ""
}
