package config

import (
	"sort"
	"strings"
)

// ProviderRegistry captures parsed providers and activation state.
type ProviderRegistry struct {
	All     map[string]ProviderConfig
	Active  map[string]ProviderConfig
	Ignored map[string]string
}

// BuildProviderRegistry builds a registry from parsed provider configs.
func BuildProviderRegistry(cfgs map[string]ProviderConfig) ProviderRegistry {
	registry := ProviderRegistry{
		All:     make(map[string]ProviderConfig, len(cfgs)),
		Active:  make(map[string]ProviderConfig),
		Ignored: make(map[string]string),
	}

	for key, cfg := range cfgs {
		if cfg.Type == "" {
			cfg.Type = key
		}
		cfg.Type = strings.ToLower(strings.TrimSpace(cfg.Type))
		if cfg.Name == "" {
			cfg.Name = cfg.Type
		}
		registry.All[cfg.Type] = cfg
	}

	keys := make([]string, 0, len(registry.All))
	for key := range registry.All {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		cfg := registry.All[key]
		if !cfg.Enabled {
			registry.Ignored[cfg.Type] = "disabled in config"
			continue
		}
		if strings.TrimSpace(cfg.ClientID) == "" || strings.TrimSpace(cfg.TokenURL) == "" || strings.TrimSpace(cfg.APIURL) == "" {
			registry.Ignored[cfg.Type] = "enabled but missing client or endpoint configuration"
			continue
		}
		registry.Active[cfg.Type] = cfg
	}

	return registry
}
