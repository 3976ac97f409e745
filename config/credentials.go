package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// CredentialStore holds provider API keys read from credentials.toml:
//
//	[credentials]
//	anthropic = "sk-ant-..."
//
// Environment variables take precedence; see APIKey.
type CredentialStore struct {
	credentials map[string]string // providerID → API key
}

// NewCredentialStore returns an empty store.
func NewCredentialStore() *CredentialStore {
	return &CredentialStore{credentials: make(map[string]string)}
}

type credentialsFile struct {
	Credentials map[string]string `toml:"credentials"`
}

func credentialsPath(dataDir string) string {
	return filepath.Join(dataDir, "credentials.toml")
}

// LoadCredentialStore reads credentials.toml from dataDir. A missing file
// yields an empty store.
func LoadCredentialStore(dataDir string) (*CredentialStore, error) {
	store := NewCredentialStore()

	path := credentialsPath(dataDir)
	if !FileExists(path) {
		return store, nil
	}

	var cf credentialsFile
	if _, err := toml.DecodeFile(path, &cf); err != nil {
		return nil, &ConfigError{Field: path, Reason: "parse failed", Err: err}
	}
	for id, key := range cf.Credentials {
		store.credentials[strings.ToLower(id)] = key
	}
	return store, nil
}

// Get returns the stored key for providerID, or "".
func (c *CredentialStore) Get(providerID string) string {
	if c == nil {
		return ""
	}
	return c.credentials[providerID]
}

// Set stores a key in memory; call Save to persist it.
func (c *CredentialStore) Set(providerID, apiKey string) {
	c.credentials[strings.ToLower(providerID)] = strings.TrimSpace(apiKey)
}

// Save writes the store to credentials.toml in dataDir with 0600 permissions.
func (c *CredentialStore) Save(dataDir string) error {
	if err := EnsureDir(dataDir); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	f, err := os.OpenFile(credentialsPath(dataDir), os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create credentials file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(credentialsFile{Credentials: c.credentials}); err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}
	return nil
}

// APIKey resolves the key for the configured provider: the provider's
// environment variable first, then credentials.toml. Ollama needs no key.
// A missing key is a *ConfigError.
func (c *Config) APIKey() (string, error) {
	id := c.LLM.Provider
	envVar := APIKeyEnvVar(id)
	if envVar == "" {
		return "", nil
	}

	if key := strings.TrimSpace(os.Getenv(envVar)); key != "" {
		return key, nil
	}
	if key := strings.TrimSpace(c.Credentials.Get(id)); key != "" {
		return key, nil
	}

	return "", &ConfigError{
		Field:  envVar,
		Reason: fmt.Sprintf("API key for %s is not set (environment or %s)", ProviderDisplayName(id), credentialsPath(c.DataDir())),
	}
}
