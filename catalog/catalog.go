// Package catalog provides the static registry of supported AI models.
// The model set is a fixed enumeration built at process start; it is never
// persisted and never changes at runtime, so unsynchronized concurrent reads
// are safe.
package catalog

// ModelDescriptor describes one supported model and its capability flags.
// Prices are in $/M tokens.
type ModelDescriptor struct {
	ModelID       string  `json:"modelId"`
	DisplayName   string  `json:"displayName"`
	Description   string  `json:"description"`
	SupportsText  bool    `json:"supportsText"`
	SupportsImage bool    `json:"supportsImage"`
	InputPrice    float64 `json:"inputPrice"`
	OutputPrice   float64 `json:"outputPrice"`
}

// DefaultModelID is the model unknown ids resolve to.
const DefaultModelID = "openai/gpt-4.1-nano"

// models is the fixed table, in declaration order. List() preserves this order.
var models = []ModelDescriptor{
	{
		ModelID:       "openai/gpt-4.1-nano",
		DisplayName:   "GPT-4.1 Nano",
		Description:   "快速高效的多模态模型",
		SupportsText:  true,
		SupportsImage: true,
		InputPrice:    0.10,
		OutputPrice:   0.40,
	},
	{
		ModelID:       "google/gemini-2.5-flash",
		DisplayName:   "Gemini 2.5 Flash",
		Description:   "Google的多模态模型",
		SupportsText:  true,
		SupportsImage: true,
		InputPrice:    0.30,
		OutputPrice:   0.60,
	},
	{
		ModelID:       "deepseek/deepseek-r1-distill-qwen-7b",
		DisplayName:   "DeepSeek R1",
		Description:   "DeepSeek推理模型",
		SupportsText:  true,
		SupportsImage: false,
		InputPrice:    0.15,
		OutputPrice:   0.30,
	},
	{
		ModelID:       "qwen/qwen3-30b-a3b:free",
		DisplayName:   "Qwen 3 30B (免费)",
		Description:   "通义千问大模型",
		SupportsText:  true,
		SupportsImage: false,
		InputPrice:    0.00,
		OutputPrice:   0.00,
	},
}

// Catalog resolves model ids against the fixed model table.
type Catalog struct {
	byID            map[string]ModelDescriptor
	order           []ModelDescriptor
	defaultModel    ModelDescriptor
	providerEnabled bool
}

// New builds the catalog. providerEnabled is the owning chat provider's
// enabled flag; it gates IsAvailable but not Resolve/List.
func New(providerEnabled bool) *Catalog {
	c := &Catalog{
		byID:            make(map[string]ModelDescriptor, len(models)),
		order:           models,
		providerEnabled: providerEnabled,
	}
	for _, m := range models {
		c.byID[m.ModelID] = m
		if m.ModelID == DefaultModelID {
			c.defaultModel = m
		}
	}
	return c
}

// Resolve returns the descriptor for modelID, or the default descriptor for
// unknown ids. It never fails.
func (c *Catalog) Resolve(modelID string) ModelDescriptor {
	if m, ok := c.byID[modelID]; ok {
		return m
	}
	return c.defaultModel
}

// List returns all descriptors in declaration order.
func (c *Catalog) List() []ModelDescriptor {
	out := make([]ModelDescriptor, len(c.order))
	copy(out, c.order)
	return out
}

// FilterImageCapable returns the descriptors with SupportsImage set,
// preserving catalog order.
func (c *Catalog) FilterImageCapable() []ModelDescriptor {
	out := make([]ModelDescriptor, 0, len(c.order))
	for _, m := range c.order {
		if m.SupportsImage {
			out = append(out, m)
		}
	}
	return out
}

// Contains reports whether modelID is a known catalog entry.
func (c *Catalog) Contains(modelID string) bool {
	_, ok := c.byID[modelID]
	return ok
}

// IsAvailable reports whether modelID resolves to a known descriptor with at
// least one capability and the owning provider is enabled.
func (c *Catalog) IsAvailable(modelID string) bool {
	m, ok := c.byID[modelID]
	if !ok {
		return false
	}
	return (m.SupportsText || m.SupportsImage) && c.providerEnabled
}
