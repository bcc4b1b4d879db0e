// Package oauth resolves social identities from configured providers.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	authconfig "github.com/koverhq/kover/internal/auth/config"
	authdomain "github.com/koverhq/kover/internal/auth/domain"
)

// Identity is the provider-agnostic shape of a resolved social account.
type Identity struct {
	ExternalID  string
	Email       string
	DisplayName string
}

// Resolver exchanges provider credentials for an Identity.
type Resolver interface {
	ResolveFromCode(ctx context.Context, provider, code string) (Identity, error)
	ResolveFromToken(ctx context.Context, provider, accessToken string) (Identity, error)
}

type resolver struct {
	registry   authconfig.ProviderRegistry
	httpClient *http.Client
}

// NewResolver builds a Resolver with an explicit request timeout so a slow
// provider can never hang an inbound request.
func NewResolver(registry authconfig.ProviderRegistry, timeout time.Duration) Resolver {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &resolver{
		registry:   registry,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (r *resolver) ResolveFromCode(ctx context.Context, provider, code string) (Identity, error) {
	cfg, err := r.lookupProvider(provider)
	if err != nil {
		return Identity{}, err
	}
	if strings.TrimSpace(code) == "" {
		return Identity{}, fmt.Errorf("%w: missing code", authdomain.ErrProvider)
	}

	token, err := r.exchangeCode(ctx, cfg, code)
	if err != nil {
		return Identity{}, err
	}

	return r.fetchIdentity(ctx, cfg, token)
}

func (r *resolver) ResolveFromToken(ctx context.Context, provider, accessToken string) (Identity, error) {
	cfg, err := r.lookupProvider(provider)
	if err != nil {
		return Identity{}, err
	}
	if strings.TrimSpace(accessToken) == "" {
		return Identity{}, fmt.Errorf("%w: missing token", authdomain.ErrProvider)
	}

	return r.fetchIdentity(ctx, cfg, accessToken)
}

func (r *resolver) lookupProvider(rawName string) (authconfig.ProviderConfig, error) {
	name := strings.ToLower(strings.TrimSpace(rawName))
	if name == "" {
		return authconfig.ProviderConfig{}, fmt.Errorf("%w: missing provider", authdomain.ErrProvider)
	}

	cfg, ok := r.registry.Active[name]
	if !ok {
		return authconfig.ProviderConfig{}, fmt.Errorf("%w: unknown provider %q", authdomain.ErrProvider, name)
	}
	return cfg, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (r *resolver) exchangeCode(ctx context.Context, cfg authconfig.ProviderConfig, code string) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("client_id", cfg.ClientID)
	if strings.TrimSpace(cfg.ClientSecret) != "" {
		form.Set("client_secret", cfg.ClientSecret)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", authdomain.ErrProvider, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", authdomain.ErrProvider, err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("%w: token endpoint returned %d", authdomain.ErrProvider, resp.StatusCode)
	}

	var token tokenResponse
	if err := json.Unmarshal(body, &token); err == nil && token.AccessToken != "" {
		return token.AccessToken, nil
	}

	// Some providers still answer form-encoded.
	values, err := url.ParseQuery(string(body))
	if err != nil || values.Get("access_token") == "" {
		return "", fmt.Errorf("%w: unparsable token response", authdomain.ErrProvider)
	}
	return values.Get("access_token"), nil
}

func (r *resolver) fetchIdentity(ctx context.Context, cfg authconfig.ProviderConfig, accessToken string) (Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.APIURL, nil)
	if err != nil {
		return Identity{}, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", authdomain.ErrProvider, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", authdomain.ErrProvider, err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return Identity{}, fmt.Errorf("%w: identity endpoint returned %d", authdomain.ErrProvider, resp.StatusCode)
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return Identity{}, fmt.Errorf("%w: unparsable identity response", authdomain.ErrProvider)
	}

	identity := Identity{
		ExternalID:  firstClaim(payload, "sub", "id", "user_id", "uid"),
		Email:       firstClaim(payload, "email"),
		DisplayName: firstClaim(payload, "name", "display_name", "login", "nickname"),
	}
	if identity.ExternalID == "" || identity.Email == "" {
		return Identity{}, fmt.Errorf("%w: identity missing id or email", authdomain.ErrProvider)
	}
	return identity, nil
}

func firstClaim(payload map[string]any, keys ...string) string {
	for _, key := range keys {
		switch value := payload[key].(type) {
		case string:
			if strings.TrimSpace(value) != "" {
				return strings.TrimSpace(value)
			}
		case float64:
			return strings.TrimSpace(fmt.Sprintf("%.0f", value))
		}
	}
	return ""
}
