package provider

import (
	"toolchat/config"
	"toolchat/model"
)

// FromConfig builds the configured provider. The API key is resolved
// through config.Config.APIKey, so a missing key surfaces as a
// *config.ConfigError before any request is made.
func FromConfig(cfg *config.Config) (model.Provider, error) {
	apiKey, err := cfg.APIKey()
	if err != nil {
		return nil, err
	}

	providerType := MapProviderIDToType(cfg.LLM.Provider)
	p, err := NewProvider(Config{
		Type:        providerType,
		BaseURL:     cfg.BaseURL(),
		Model:       cfg.LLM.Model,
		APIKey:      apiKey,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.RequestTimeout(),
		MaxRetries:  cfg.LLM.MaxRetries,
	})
	if err != nil {
		return nil, err
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Provider] Initialized provider: %s (model: %s)", providerType, p.GetModel())
	}
	return p, nil
}
