// Package config loads toolchat settings from a TOML file, the environment,
// and an optional .env file, and owns the process-wide debug logger.
package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type LLMConfig struct {
	Provider              string   `toml:"provider"`
	Model                 string   `toml:"model"`
	BaseURL               string   `toml:"base_url"`
	Temperature           *float64 `toml:"temperature"`
	MaxTokens             int64    `toml:"max_tokens"`
	RequestTimeoutSeconds int      `toml:"request_timeout_seconds"`
	MaxRetries            int      `toml:"max_retries"`
	MaxToolRounds         int      `toml:"max_tool_rounds"`
	SystemPrompt          string   `toml:"system_prompt"`
}

type TodoConfig struct {
	Backend string `toml:"backend"` // "json" or "sqlite"
	Path    string `toml:"path"`    // empty means <data_directory>/todos.json (or .db)
}

type SandboxConfig struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"` // SigV4 signing region
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type Config struct {
	DataDirectory string        `toml:"data_directory"`
	LLM           LLMConfig     `toml:"llm"`
	Todo          TodoConfig    `toml:"todo"`
	Sandbox       SandboxConfig `toml:"sandbox"`

	// Path is the file the config was read from.
	Path string `toml:"-"`
	// Credentials holds API keys from credentials.toml in the data directory.
	Credentials *CredentialStore `toml:"-"`
}

var Debug = false
var DebugLog *log.Logger

func (c *Config) DataDir() string {
	return ExpandPath(c.DataDirectory)
}

// TodoPath returns the TODO store location, defaulting by backend.
func (c *Config) TodoPath() string {
	if c.Todo.Path != "" {
		return ExpandPath(c.Todo.Path)
	}
	if strings.EqualFold(c.Todo.Backend, "sqlite") {
		return filepath.Join(c.DataDir(), "todos.db")
	}
	return filepath.Join(c.DataDir(), "todos.json")
}

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.LLM.RequestTimeoutSeconds) * time.Second
}

func (c *Config) SandboxTimeout() time.Duration {
	return time.Duration(c.Sandbox.TimeoutSeconds) * time.Second
}

func (c *Config) applyEnvOverrides() {
	if p := os.Getenv("TOOLCHAT_PROVIDER"); p != "" {
		c.LLM.Provider = p
	}
	if m := os.Getenv("TOOLCHAT_MODEL"); m != "" {
		c.LLM.Model = m
	}
	if dataDir := os.Getenv("TOOLCHAT_DATA_DIR"); dataDir != "" {
		c.DataDirectory = dataDir
	}
	if endpoint := os.Getenv("TOOLCHAT_SANDBOX_ENDPOINT"); endpoint != "" {
		c.Sandbox.Endpoint = endpoint
	}
	if region := os.Getenv("AWS_REGION"); region != "" {
		c.Sandbox.Region = region
	}
}

// validate rejects values that would only fail later, deep inside a turn.
func (c *Config) validate() error {
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	switch c.LLM.Provider {
	case "anthropic", "openai", "openrouter", "ollama":
	default:
		return &ConfigError{Field: "llm.provider", Reason: fmt.Sprintf("unknown provider %q", c.LLM.Provider)}
	}

	if t := c.LLM.Temperature; t != nil && (*t < 0 || *t > 2) {
		return &ConfigError{Field: "llm.temperature", Reason: "must be between 0 and 2"}
	}
	if c.LLM.MaxTokens < 0 {
		return &ConfigError{Field: "llm.max_tokens", Reason: "must not be negative"}
	}
	if c.LLM.RequestTimeoutSeconds <= 0 {
		return &ConfigError{Field: "llm.request_timeout_seconds", Reason: "must be positive"}
	}
	if c.LLM.MaxToolRounds <= 0 {
		return &ConfigError{Field: "llm.max_tool_rounds", Reason: "must be positive"}
	}
	if c.Sandbox.TimeoutSeconds <= 0 {
		return &ConfigError{Field: "sandbox.timeout_seconds", Reason: "must be positive"}
	}
	if strings.TrimSpace(c.Sandbox.Region) == "" {
		return &ConfigError{Field: "sandbox.region", Reason: "must not be empty"}
	}

	switch strings.ToLower(c.Todo.Backend) {
	case "", "json", "sqlite":
	default:
		return &ConfigError{Field: "todo.backend", Reason: fmt.Sprintf("unknown backend %q", c.Todo.Backend)}
	}
	return nil
}

func CheckDebug() bool {
	debug := os.Getenv("TOOLCHAT_DEBUG")
	return debug == "true" || debug == "1"
}

// InitDebugLog opens debug.log in dataDir when TOOLCHAT_DEBUG is set.
// The returned function closes the file; it is safe to call when logging
// is disabled.
func InitDebugLog(dataDir string) func() {
	if !CheckDebug() {
		return func() {}
	}

	Debug = true
	logPath := filepath.Join(dataDir, "debug.log")

	// 0600: prompts and tool arguments end up in here
	f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not open debug log at %s: %v\n", logPath, err)
		return func() {}
	}

	DebugLog = log.New(f, "", log.Ldate|log.Ltime|log.Lmicroseconds|log.Lshortfile)
	DebugLog.Printf("=== Debug logging started (TOOLCHAT_DEBUG=%s) ===", os.Getenv("TOOLCHAT_DEBUG"))
	DebugLog.Printf("Log path: %s", logPath)

	return func() {
		DebugLog.Printf("=== Debug logging stopped ===")
		DebugLog = nil
		f.Close()
	}
}

// Load reads the config file (creating it from the template when missing),
// applies environment overrides, validates the result, and prepares the
// data directory.
func Load() (*Config, error) {
	path := GetConfigFilePath()
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	dataDir := cfg.DataDir()
	if err := EnsureDataDirPermissions(dataDir); err != nil {
		return nil, fmt.Errorf("failed to prepare data directory: %w", err)
	}

	store, err := LoadCredentialStore(dataDir)
	if err != nil {
		return nil, err
	}
	cfg.Credentials = store

	return cfg, nil
}
