package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sysid/mcp-cli/internal/agent"
	"github.com/sysid/mcp-cli/internal/agent/providers"
	"github.com/sysid/mcp-cli/internal/config"
	"github.com/sysid/mcp-cli/internal/mcp"
)

// shutdownTimeout bounds how long a command waits for child processes to
// exit once its work is done or a shutdown signal arrives.
const shutdownTimeout = 5 * time.Second

// openManager loads the server launch descriptor and returns a manager with
// every auto-start server connected. Connection failures are logged and
// skipped per server; they never abort startup, matching the tool catalog's
// best-effort posture. If f.server is set, only that server is connected.
func openManager(ctx context.Context, f *flags) (*mcp.Manager, error) {
	servers, err := config.LoadServers(f.configFile)
	if err != nil {
		return nil, err
	}

	if f.server != "" {
		found := false
		for _, s := range servers {
			if s.ID == f.server {
				s.AutoStart = true
				found = true
			} else {
				s.AutoStart = false
			}
		}
		if !found {
			return nil, fmt.Errorf("server %q not found in %s", f.server, f.configFile)
		}
	}

	mgr := mcp.NewManager(&mcp.Config{Enabled: true, Servers: servers}, slog.Default())
	if err := mgr.Start(ctx); err != nil {
		return nil, err
	}
	return mgr, nil
}

// closeManager stops every connected server, bounding the wait so a wedged
// child cannot hang the CLI on exit.
func closeManager(mgr *mcp.Manager) {
	done := make(chan struct{})
	go func() {
		mgr.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(shutdownTimeout):
		slog.Warn("timed out waiting for MCP servers to shut down")
	}
}

// resolveProvider builds the LLM provider named by f.provider, applying the
// provider config file's settings first and the --model flag last.
func resolveProvider(f *flags) (agent.LLMProvider, string, error) {
	providersPath, err := config.DefaultProvidersPath()
	if err != nil {
		return nil, "", err
	}
	providerConfigs, err := config.LoadProviders(providersPath)
	if err != nil {
		return nil, "", err
	}
	pc := providerConfigs[f.provider]

	model := f.model
	if model == "" {
		model = pc.DefaultModel
	}

	switch f.provider {
	case "anthropic":
		p, err := providers.NewAnthropicProvider(providers.AnthropicConfig{
			APIKey:       pc.ResolvedAPIKey(),
			BaseURL:      pc.APIBase,
			DefaultModel: model,
		})
		if err != nil {
			return nil, "", err
		}
		return p, model, nil
	case "openai":
		return providers.NewOpenAIProvider(pc.ResolvedAPIKey()), model, nil
	case "ollama":
		return providers.NewOllamaProvider(providers.OllamaConfig{
			BaseURL:      pc.APIBase,
			DefaultModel: model,
		}), model, nil
	default:
		return nil, "", fmt.Errorf("unknown provider %q", f.provider)
	}
}
