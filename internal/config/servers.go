// Package config loads the two on-disk JSON documents mcp-cli needs at
// startup: the server launch descriptor (which subprocesses to spawn) and
// the provider configuration (which LLM backends are available).
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/sysid/mcp-cli/internal/mcp"
)

// serverDescriptor is the on-disk shape of one entry under "mcpServers".
type serverDescriptor struct {
	Command string            `json:"command"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
}

// launchFile is the on-disk shape of the server launch descriptor file.
type launchFile struct {
	MCPServers map[string]serverDescriptor `json:"mcpServers"`
}

// LoadServers reads a server launch descriptor file and returns one
// mcp.ServerConfig per entry, sorted by name for deterministic startup
// order. Each entry's key becomes both the server's ID and its namespace.
func LoadServers(path string) ([]*mcp.ServerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read server config %s: %w", path, err)
	}

	var file launchFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse server config %s: %w", path, err)
	}

	names := make([]string, 0, len(file.MCPServers))
	for name := range file.MCPServers {
		names = append(names, name)
	}
	sort.Strings(names)

	servers := make([]*mcp.ServerConfig, 0, len(names))
	for _, name := range names {
		d := file.MCPServers[name]
		cfg := &mcp.ServerConfig{
			ID:        name,
			Name:      name,
			Transport: mcp.TransportStdio,
			Command:   d.Command,
			Args:      d.Args,
			Env:       d.Env,
			AutoStart: true,
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("server %q: %w", name, err)
		}
		servers = append(servers, cfg)
	}

	return servers, nil
}
