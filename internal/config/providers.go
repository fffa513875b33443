package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ProviderConfig describes how to reach one LLM backend.
type ProviderConfig struct {
	APIKeyEnv    string `json:"api_key_env,omitempty"`
	APIKey       string `json:"api_key,omitempty"`
	APIBase      string `json:"api_base,omitempty"`
	DefaultModel string `json:"default_model,omitempty"`
}

// ResolvedAPIKey returns the provider's API key, resolved in the order:
// explicit value, environment variable named by APIKeyEnv, none.
func (p ProviderConfig) ResolvedAPIKey() string {
	if p.APIKey != "" {
		return p.APIKey
	}
	if p.APIKeyEnv != "" {
		return os.Getenv(p.APIKeyEnv)
	}
	return ""
}

// DefaultProvidersPath returns ~/.mcp-cli/providers.json.
func DefaultProvidersPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".mcp-cli", "providers.json"), nil
}

// LoadProviders reads the provider configuration file, mapping provider
// name to its config. A missing file is not an error; it yields an empty
// map so callers can still proceed with provider flags supplied on the
// command line.
func LoadProviders(path string) (map[string]ProviderConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]ProviderConfig{}, nil
		}
		return nil, fmt.Errorf("read provider config %s: %w", path, err)
	}

	var providers map[string]ProviderConfig
	if err := json.Unmarshal(data, &providers); err != nil {
		return nil, fmt.Errorf("parse provider config %s: %w", path, err)
	}
	return providers, nil
}
