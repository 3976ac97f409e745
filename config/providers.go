package config

// APIKeyEnvVar returns the environment variable holding the API key for a
// provider, or "" when the provider needs none.
func APIKeyEnvVar(providerID string) string {
	switch providerID {
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	case "openai":
		return "OPENAI_API_KEY"
	case "openrouter":
		return "OPENROUTER_API_KEY"
	default:
		return ""
	}
}

// ProviderDisplayName returns the display name for a provider
func ProviderDisplayName(providerID string) string {
	switch providerID {
	case "ollama":
		return "Ollama"
	case "openrouter":
		return "OpenRouter"
	case "anthropic":
		return "Anthropic"
	case "openai":
		return "OpenAI"
	default:
		return providerID
	}
}

// ProviderDefaultBaseURL returns the default base URL for a provider
func ProviderDefaultBaseURL(providerID string) string {
	switch providerID {
	case "ollama":
		return "http://localhost:11434"
	case "openrouter":
		return "https://openrouter.ai/api/v1"
	case "anthropic":
		return "https://api.anthropic.com"
	case "openai":
		return "https://api.openai.com/v1"
	default:
		return ""
	}
}

// BaseURL returns the configured base URL or the provider default.
func (c *Config) BaseURL() string {
	if c.LLM.BaseURL != "" {
		return c.LLM.BaseURL
	}
	return ProviderDefaultBaseURL(c.LLM.Provider)
}
