package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"toolchat/agent"
	"toolchat/config"
	"toolchat/model"
	"toolchat/provider"
	"toolchat/sandbox"
	"toolchat/storage"
	"toolchat/tools"
	"toolchat/ui"
)

const (
	Version = "v0.01.00"
	License = "Apache-2.0"
)

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-v") {
		fmt.Printf("toolchat %s (%s)\n", Version, License)
		return
	}

	// Keys from .env fill in anything not already exported.
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read .env: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// toolchat set-key <provider> <key>
	if len(os.Args) == 4 && os.Args[1] == "set-key" {
		if err := setKey(cfg, os.Args[2], os.Args[3]); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to save key: %v\n", err)
			os.Exit(1)
		}
		return
	}

	closeLog := config.InitDebugLog(cfg.DataDir())
	defer closeLog()

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error running toolchat: %v\n", err)
		closeLog()
		os.Exit(1)
	}
}

func setKey(cfg *config.Config, providerID, key string) error {
	providerID = strings.ToLower(providerID)
	if config.APIKeyEnvVar(providerID) == "" {
		return fmt.Errorf("provider %q does not take an API key", providerID)
	}
	cfg.Credentials.Set(providerID, key)
	if err := cfg.Credentials.Save(cfg.DataDir()); err != nil {
		return err
	}
	fmt.Printf("Saved %s key to the data directory\n", config.ProviderDisplayName(providerID))
	return nil
}

func run(cfg *config.Config) error {
	llm, err := provider.FromConfig(cfg)
	if err != nil {
		return err
	}

	// An unreachable API is reported now rather than on the first message.
	if err := checkProvider(context.Background(), llm, pingTimeout); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	todos, err := storage.NewTodoStore(cfg.Todo.Backend, cfg.TodoPath())
	if err != nil {
		return fmt.Errorf("failed to open todo store: %w", err)
	}
	defer func() {
		if err := todos.Close(); err != nil && config.DebugLog != nil {
			config.DebugLog.Printf("Warning: failed to close todo store: %v", err)
		}
	}()

	registry := tools.NewRegistry(todos, sandbox.NewClient(cfg.Sandbox.Endpoint, cfg.Sandbox.Region, cfg.SandboxTimeout()))

	loop := agent.NewLoop(llm, registry, agent.Options{
		SystemPrompt:   cfg.LLM.SystemPrompt,
		MaxToolRounds:  cfg.LLM.MaxToolRounds,
		RequestTimeout: cfg.RequestTimeout(),
		OnToolResult:   ui.ToolReporter(os.Stdout),
	})

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Main] toolchat %s started with %s (%s)", Version, llm.GetDisplayName(), cfg.LLM.Model)
	}

	repl := ui.NewREPL(loop, os.Stdin, os.Stdout)
	repl.Models = llm
	return repl.Run(context.Background())
}

const pingTimeout = 10 * time.Second

// checkProvider pings the provider once with a bounded wait.
func checkProvider(ctx context.Context, p model.Provider, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := p.Ping(ctx); err != nil {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[Main] ping %s failed: %v", p.GetDisplayName(), err)
		}
		return fmt.Errorf("%s is not reachable: %w", p.GetDisplayName(), err)
	}
	return nil
}
