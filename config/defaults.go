package config

const DefaultSystemPrompt = "You are a helpful assistant. Use the available tools for weather, arithmetic, TODO items, and running Python code. Reply in the user's language."

func DefaultConfig() *Config {
	temperature := 0.7
	return &Config{
		DataDirectory: GetDefaultDataDir(),
		LLM: LLMConfig{
			Provider:              "anthropic",
			Temperature:           &temperature,
			MaxTokens:             4096,
			RequestTimeoutSeconds: 120,
			MaxRetries:            2,
			MaxToolRounds:         10,
			SystemPrompt:          DefaultSystemPrompt,
		},
		Todo: TodoConfig{
			Backend: "json",
		},
		Sandbox: SandboxConfig{
			Region:         "us-west-2",
			TimeoutSeconds: 60,
		},
	}
}

func GenerateConfigTemplate() string {
	return `# toolchat configuration
# Location: ~/.config/toolchat/config.toml (override with TOOLCHAT_CONFIG)
# This file uses TOML format: https://toml.io

# Directory for TODO items, credentials.toml, and debug.log
data_directory = "~/.local/share/toolchat"

[llm]
# One of: anthropic, openai, openrouter, ollama
# TOOLCHAT_PROVIDER overrides this.
provider = "anthropic"

# Leave empty for the provider default. TOOLCHAT_MODEL overrides this.
model = ""

# Leave empty for the provider default endpoint.
base_url = ""

temperature = 0.7
max_tokens = 4096

# Per model call
request_timeout_seconds = 120
max_retries = 2

# Model round trips allowed per user turn before giving up
max_tool_rounds = 10

system_prompt = "You are a helpful assistant. Use the available tools for weather, arithmetic, TODO items, and running Python code. Reply in the user's language."

[todo]
# "json" or "sqlite"
backend = "json"

# Leave empty for <data_directory>/todos.json (or todos.db)
path = ""

[sandbox]
# MCP endpoint of the remote code interpreter. Must be https
# (plain http is accepted only for localhost). TOOLCHAT_SANDBOX_ENDPOINT
# overrides this.
endpoint = ""

# Requests are signed with AWS SigV4 using AWS_ACCESS_KEY_ID /
# AWS_SECRET_ACCESS_KEY (and AWS_SESSION_TOKEN if set). AWS_REGION
# overrides the region.
region = "us-west-2"
timeout_seconds = 60
`
}
