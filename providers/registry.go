// Package providers holds the per-provider configuration registry shared by
// the generation orchestrator and the provider clients.
package providers

import (
	"fmt"

	"github.com/BaSui01/aiplatform/config"
	"github.com/BaSui01/aiplatform/types"
)

// Kind identifies one of the external provider families.
type Kind string

const (
	KindChat   Kind = "chat"
	KindImage  Kind = "image"
	KindMesh3D Kind = "mesh3d"
)

// Config is the registry view of one provider's configuration. Provider
// specific defaults stay on the concrete config structs in package config;
// this carries the fields every dispatch decision needs.
type Config struct {
	Kind    Kind
	Enabled bool
	BaseURL string
	APIKey  string
}

// Registry exposes a read-only snapshot of provider configuration, resolved
// once at process start. Safe for unsynchronized concurrent reads.
type Registry struct {
	configs map[Kind]Config
}

// NewRegistry builds the registry from the loaded configuration.
func NewRegistry(cfg config.ProvidersConfig) *Registry {
	return &Registry{
		configs: map[Kind]Config{
			KindChat: {
				Kind:    KindChat,
				Enabled: cfg.Chat.Enabled,
				BaseURL: cfg.Chat.BaseURL,
				APIKey:  cfg.Chat.APIKey,
			},
			KindImage: {
				Kind:    KindImage,
				Enabled: cfg.Image.Enabled,
				BaseURL: cfg.Image.BaseURL,
				APIKey:  cfg.Image.APIKey,
			},
			KindMesh3D: {
				Kind:    KindMesh3D,
				Enabled: cfg.Mesh3D.Enabled,
				BaseURL: cfg.Mesh3D.BaseURL,
				APIKey:  cfg.Mesh3D.APIKey,
			},
		},
	}
}

// ConfigFor returns the configuration for kind. Asking for an undeclared kind
// is a programming error, reported as a CONFIGURATION error.
func (r *Registry) ConfigFor(kind Kind) (Config, error) {
	c, ok := r.configs[kind]
	if !ok {
		return Config{}, types.NewError(types.ErrConfiguration,
			fmt.Sprintf("undeclared provider kind: %s", kind))
	}
	return c, nil
}

// Enabled reports whether the provider kind is declared and enabled.
func (r *Registry) Enabled(kind Kind) bool {
	c, ok := r.configs[kind]
	return ok && c.Enabled
}
