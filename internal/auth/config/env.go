package config

import (
	"os"
	"strings"
)

const (
	envPrefixGoogle   = "AUTH_GOOGLE_"
	envPrefixFacebook = "AUTH_FACEBOOK_"
	envPrefixGitHub   = "AUTH_GITHUB_"
)

type providerEnvSpec struct {
	providerType string
	prefix       string
	displayName  string
}

var providerSpecs = []providerEnvSpec{
	{providerType: "google", prefix: envPrefixGoogle, displayName: "Google"},
	{providerType: "facebook", prefix: envPrefixFacebook, displayName: "Facebook"},
	{providerType: "github", prefix: envPrefixGitHub, displayName: "GitHub"},
}

// ParseProvidersFromEnv reads social provider configuration from environment variables.
func ParseProvidersFromEnv() map[string]ProviderConfig {
	env := os.Environ()
	configs := make(map[string]ProviderConfig, len(providerSpecs))
	for _, spec := range providerSpecs {
		if !hasEnvPrefix(env, spec.prefix) {
			continue
		}
		cfg := parseProviderConfig(spec.providerType, spec.prefix, spec.displayName)
		configs[cfg.Type] = cfg
	}
	return configs
}

func parseProviderConfig(providerType string, prefix string, defaultName string) ProviderConfig {
	name := strings.TrimSpace(os.Getenv(prefix + "NAME"))
	if name == "" {
		name = defaultName
	}
	return ProviderConfig{
		Name:         name,
		Type:         providerType,
		Enabled:      getenvBool(prefix+"ENABLED", false),
		ClientID:     strings.TrimSpace(os.Getenv(prefix + "CLIENT_ID")),
		ClientSecret: strings.TrimSpace(os.Getenv(prefix + "CLIENT_SECRET")),
		TokenURL:     strings.TrimSpace(os.Getenv(prefix + "TOKEN_URL")),
		APIURL:       strings.TrimSpace(os.Getenv(prefix + "API_URL")),
		Scopes:       parseScopes(os.Getenv(prefix + "SCOPES")),
	}
}

func getenvBool(key string, def bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func parseScopes(raw string) []string {
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	if len(parts) == 0 {
		return nil
	}
	return parts
}

func hasEnvPrefix(env []string, prefix string) bool {
	for _, entry := range env {
		if strings.HasPrefix(entry, prefix) {
			return true
		}
	}
	return false
}
