package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// Manager manages multiple MCP server connections.
type Manager struct {
	config  *Config
	logger  *slog.Logger
	clients map[string]*Client
	mu      sync.RWMutex

	samplingMu sync.RWMutex
	sampling   SamplingHandler
}

// Config holds the MCP manager configuration.
type Config struct {
	Enabled bool            `json:"enabled"`
	Servers []*ServerConfig `json:"servers"`
}

// NewManager creates a new MCP manager.
func NewManager(cfg *Config, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		config:  cfg,
		logger:  logger.With("component", "mcp"),
		clients: make(map[string]*Client),
	}
}

// Start connects to all configured MCP servers with auto_start enabled.
func (m *Manager) Start(ctx context.Context) error {
	if m.config == nil || !m.config.Enabled {
		m.logger.Debug("MCP disabled")
		return nil
	}

	var wg sync.WaitGroup
	for _, serverCfg := range m.config.Servers {
		if !serverCfg.AutoStart {
			continue
		}

		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if err := m.Connect(ctx, id); err != nil {
				m.logger.Error("failed to connect to MCP server",
					"server", id,
					"error", err)
				// A failed slot does not block the others.
			}
		}(serverCfg.ID)
	}
	wg.Wait()

	return nil
}

// Stop disconnects from all MCP servers.
func (m *Manager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, client := range m.clients {
		if err := client.Close(); err != nil {
			m.logger.Error("failed to close MCP client",
				"server", id,
				"error", err)
		}
		delete(m.clients, id)
	}

	return nil
}

// Connect connects to a specific MCP server by ID.
func (m *Manager) Connect(ctx context.Context, serverID string) error {
	// Find server config
	var serverCfg *ServerConfig
	for _, cfg := range m.config.Servers {
		if cfg.ID == serverID {
			serverCfg = cfg
			break
		}
	}

	if serverCfg == nil {
		return fmt.Errorf("server %q not found in config", serverID)
	}

	// Check if already connected
	m.mu.RLock()
	if _, exists := m.clients[serverID]; exists {
		m.mu.RUnlock()
		return nil
	}
	m.mu.RUnlock()

	// Create and connect client
	client := NewClient(serverCfg, m.logger)
	if err := client.Connect(ctx); err != nil {
		return err
	}

	if handler := m.SamplingHandler(); handler != nil {
		client.HandleSampling(handler)
	}

	m.mu.Lock()
	m.clients[serverID] = client
	m.mu.Unlock()

	m.logger.Info("connected to MCP server",
		"server", serverID,
		"name", client.ServerInfo().Name)

	return nil
}

// Disconnect disconnects from a specific MCP server.
func (m *Manager) Disconnect(serverID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	client, exists := m.clients[serverID]
	if !exists {
		return nil
	}

	if err := client.Close(); err != nil {
		return err
	}

	delete(m.clients, serverID)
	m.logger.Info("disconnected from MCP server", "server", serverID)

	return nil
}

// SetSamplingHandler registers the handler used for server-initiated
// sampling requests on every currently connected client, and on any client
// connected afterward.
func (m *Manager) SetSamplingHandler(handler SamplingHandler) {
	m.samplingMu.Lock()
	m.sampling = handler
	m.samplingMu.Unlock()

	if handler == nil {
		return
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, client := range m.clients {
		client.HandleSampling(handler)
	}
}

// SamplingHandler returns the currently registered sampling handler, if any.
func (m *Manager) SamplingHandler() SamplingHandler {
	m.samplingMu.RLock()
	defer m.samplingMu.RUnlock()
	return m.sampling
}

// Client returns a client for a specific server.
func (m *Manager) Client(serverID string) (*Client, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	client, exists := m.clients[serverID]
	return client, exists
}

// Clients returns all connected clients.
func (m *Manager) Clients() map[string]*Client {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]*Client, len(m.clients))
	for id, client := range m.clients {
		result[id] = client
	}
	return result
}

// AllTools returns all tools from all connected servers.
func (m *Manager) AllTools() map[string][]*MCPTool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string][]*MCPTool)
	for id, client := range m.clients {
		if tools := client.Tools(); len(tools) > 0 {
			result[id] = tools
		}
	}
	return result
}

// AllResources returns all resources from all connected servers.
func (m *Manager) AllResources() map[string][]*MCPResource {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string][]*MCPResource)
	for id, client := range m.clients {
		if resources := client.Resources(); len(resources) > 0 {
			result[id] = resources
		}
	}
	return result
}

// AllPrompts returns all prompts from all connected servers.
func (m *Manager) AllPrompts() map[string][]*MCPPrompt {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string][]*MCPPrompt)
	for id, client := range m.clients {
		if prompts := client.Prompts(); len(prompts) > 0 {
			result[id] = prompts
		}
	}
	return result
}

// CallTool calls a tool on a specific server.
func (m *Manager) CallTool(ctx context.Context, serverID string, toolName string, arguments map[string]any) (*ToolCallResult, error) {
	client, exists := m.Client(serverID)
	if !exists {
		return nil, fmt.Errorf("server %q not connected", serverID)
	}

	return client.CallTool(ctx, toolName, arguments)
}

// AmbiguousToolNameError is returned by ResolveTool when a bare tool name is
// offered by more than one connected server and there is no fully-qualified
// or aliased form to disambiguate it.
type AmbiguousToolNameError struct {
	Name       string
	Namespaces []string
}

func (e *AmbiguousToolNameError) Error() string {
	return fmt.Sprintf("tool %q is ambiguous across namespaces %v", e.Name, e.Namespaces)
}

// FindTool finds a tool by exact bare name across all servers, first match
// wins. Retained for callers that already know a name is unique; ResolveTool
// should be preferred when the name may come from an LLM or user input.
func (m *Manager) FindTool(name string) (serverID string, tool *MCPTool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for id, client := range m.clients {
		for _, t := range client.Tools() {
			if t.Name == name {
				return id, t
			}
		}
	}
	return "", nil
}

// ResolveTool accepts any of the three spellings a caller may use to address
// a tool — fully-qualified "namespace.name", the LLM-safe alias
// "namespace_name", or a bare "name" — and resolves it to the owning server
// and tool definition. A bare name that more than one connected server
// offers is rejected with *AmbiguousToolNameError rather than guessed at.
func (m *Manager) ResolveTool(name string) (serverID string, tool *MCPTool, err error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if ns, toolName, ok := splitQualifiedName(name); ok {
		if client, exists := m.clients[ns]; exists {
			if t := findToolInClient(client, toolName); t != nil {
				return ns, t, nil
			}
		}
	}

	if ns, toolName, ok := splitAliasName(name); ok {
		if client, exists := m.clients[ns]; exists {
			if t := findToolInClient(client, toolName); t != nil {
				return ns, t, nil
			}
		}
	}

	var matchIDs []string
	var matchTools []*MCPTool
	for id, client := range m.clients {
		if t := findToolInClient(client, name); t != nil {
			matchIDs = append(matchIDs, id)
			matchTools = append(matchTools, t)
		}
	}
	switch len(matchIDs) {
	case 0:
		return "", nil, fmt.Errorf("tool %q not found", name)
	case 1:
		return matchIDs[0], matchTools[0], nil
	default:
		return "", nil, &AmbiguousToolNameError{Name: name, Namespaces: matchIDs}
	}
}

func findToolInClient(client *Client, name string) *MCPTool {
	for _, t := range client.Tools() {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// splitQualifiedName splits a fully-qualified "namespace.name" spelling.
func splitQualifiedName(name string) (namespace, toolName string, ok bool) {
	idx := strings.Index(name, ".")
	if idx <= 0 || idx == len(name)-1 {
		return "", "", false
	}
	return name[:idx], name[idx+1:], true
}

// splitAliasName splits an LLM-safe "namespace_name" spelling on the first
// underscore, per the same rule the encoder uses to produce it.
func splitAliasName(name string) (namespace, toolName string, ok bool) {
	idx := strings.Index(name, "_")
	if idx <= 0 || idx == len(name)-1 {
		return "", "", false
	}
	return name[:idx], name[idx+1:], true
}

// ReadResource reads a resource from a specific server.
func (m *Manager) ReadResource(ctx context.Context, serverID string, uri string) ([]*ResourceContent, error) {
	client, exists := m.Client(serverID)
	if !exists {
		return nil, fmt.Errorf("server %q not connected", serverID)
	}

	return client.ReadResource(ctx, uri)
}

// GetPrompt gets a prompt from a specific server.
func (m *Manager) GetPrompt(ctx context.Context, serverID string, name string, arguments map[string]string) (*GetPromptResult, error) {
	client, exists := m.Client(serverID)
	if !exists {
		return nil, fmt.Errorf("server %q not connected", serverID)
	}

	return client.GetPrompt(ctx, name, arguments)
}

// ToolSchema represents the JSON schema for a tool, used by LLMs.
type ToolSchema struct {
	ServerID    string          `json:"server_id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"input_schema"`
}

// ToolSchemas returns tool schemas suitable for LLM tool definitions.
func (m *Manager) ToolSchemas() []ToolSchema {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var schemas []ToolSchema
	for id, client := range m.clients {
		for _, tool := range client.Tools() {
			schemas = append(schemas, ToolSchema{
				ServerID:    id,
				Name:        tool.Name,
				Description: tool.Description,
				InputSchema: tool.InputSchema,
			})
		}
	}
	return schemas
}

// ServerStatus represents the status of an MCP server.
type ServerStatus struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Connected bool       `json:"connected"`
	Server    ServerInfo `json:"server"`
	Tools     int        `json:"tools"`
	Resources int        `json:"resources"`
	Prompts   int        `json:"prompts"`
}

// Status returns the status of all configured servers.
func (m *Manager) Status() []ServerStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var statuses []ServerStatus
	for _, cfg := range m.config.Servers {
		status := ServerStatus{
			ID:   cfg.ID,
			Name: cfg.Name,
		}

		if client, exists := m.clients[cfg.ID]; exists {
			status.Connected = client.Connected()
			status.Server = client.ServerInfo()
			status.Tools = len(client.Tools())
			status.Resources = len(client.Resources())
			status.Prompts = len(client.Prompts())
		}

		statuses = append(statuses, status)
	}

	return statuses
}
