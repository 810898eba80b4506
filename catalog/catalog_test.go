package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve_KnownModel(t *testing.T) {
	c := New(true)

	m := c.Resolve("google/gemini-2.5-flash")
	assert.Equal(t, "Gemini 2.5 Flash", m.DisplayName)
	assert.True(t, m.SupportsImage)
}

func TestResolve_UnknownFallsBackToDefault(t *testing.T) {
	c := New(true)

	for _, id := range []string{"", "no-such-model", "openai/gpt-99", "qwen2.5b-local"} {
		m := c.Resolve(id)
		assert.Equal(t, DefaultModelID, m.ModelID, "id=%q", id)
	}
}

func TestList_OrderStable(t *testing.T) {
	c := New(true)

	list := c.List()
	assert.Len(t, list, 4)
	assert.Equal(t, "openai/gpt-4.1-nano", list[0].ModelID)
	assert.Equal(t, "google/gemini-2.5-flash", list[1].ModelID)
	assert.Equal(t, "deepseek/deepseek-r1-distill-qwen-7b", list[2].ModelID)
	assert.Equal(t, "qwen/qwen3-30b-a3b:free", list[3].ModelID)

	// 返回的是副本，修改不影响目录本身
	list[0].DisplayName = "mutated"
	assert.Equal(t, "GPT-4.1 Nano", c.List()[0].DisplayName)
}

func TestFilterImageCapable(t *testing.T) {
	c := New(true)

	capable := c.FilterImageCapable()
	assert.Len(t, capable, 2)
	assert.Equal(t, "openai/gpt-4.1-nano", capable[0].ModelID)
	assert.Equal(t, "google/gemini-2.5-flash", capable[1].ModelID)
}

func TestIsAvailable(t *testing.T) {
	tests := []struct {
		name            string
		modelID         string
		providerEnabled bool
		want            bool
	}{
		{"known model, provider enabled", "openai/gpt-4.1-nano", true, true},
		{"known model, provider disabled", "openai/gpt-4.1-nano", false, false},
		{"unknown model", "no-such-model", true, false},
		{"text-only model", "deepseek/deepseek-r1-distill-qwen-7b", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(tt.providerEnabled)
			assert.Equal(t, tt.want, c.IsAvailable(tt.modelID))
		})
	}
}
