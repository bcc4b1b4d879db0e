package config

// ProviderConfig defines the raw configuration for a social identity provider.
type ProviderConfig struct {
	Name         string
	Type         string
	Enabled      bool
	ClientID     string
	ClientSecret string
	TokenURL     string
	APIURL       string
	Scopes       []string
}
