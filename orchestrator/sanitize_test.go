package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizePrompt(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "a red chair", "a red chair"},
		{"trims", "  a red chair  ", "a red chair"},
		{"no-break space", "a\u00a0chair", "a chair"},
		{"ideographic space", "a\u3000chair", "a chair"},
		{"zero-width space", "a\u200bchair", "a chair"},
		{"bom", "\ufeffa chair", "a chair"},
		{"newline kept", "line one\nline two", "line one\nline two"},
		{"only exotic spaces", " \u3000\u200b", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizePrompt(tt.in))
		})
	}
}

func TestIsBlank(t *testing.T) {
	assert.True(t, isBlank(""))
	assert.True(t, isBlank("   \u3000"))
	assert.False(t, isBlank("x"))
}
