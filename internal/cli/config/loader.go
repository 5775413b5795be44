package config

import (
	"fmt"

	"github.com/yndnr/ccm-go/internal/infra/confloader"
)

// Load reads path (DefaultConfigPath when empty), the CCM_* environment
// and overrides, then verifies the result. Only an explicitly given path
// must exist. overrides maps dotted keys to flag values.
func Load(path string, overrides map[string]any) (*Config, error) {
	opt := confloader.WithConfigFile(path)
	if path == "" {
		opt = confloader.WithOptionalConfigFile(DefaultConfigPath())
	}

	loader := confloader.NewLoader(
		confloader.WithEnvPrefix(confloader.DefaultEnvPrefix),
		confloader.WithKeys(Keys...),
		opt,
	)

	cfg := Default()
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}
	if len(overrides) > 0 {
		if err := loader.LoadMap(overrides); err != nil {
			return nil, err
		}
		if err := loader.Unmarshal(cfg); err != nil {
			return nil, fmt.Errorf("unmarshal config: %w", err)
		}
	}
	if err := cfg.Verify(); err != nil {
		return nil, err
	}
	return cfg, nil
}
