package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sysid/mcp-cli/internal/mcp"
)

func writeTempFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mcp-servers.json")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestLoadServersSortsByNameAndSetsDefaults(t *testing.T) {
	path := writeTempFile(t, `{
		"mcpServers": {
			"zebra": {"command": "zebra-server"},
			"alpha": {"command": "alpha-server", "args": ["--flag"], "env": {"KEY": "value"}}
		}
	}`)

	servers, err := LoadServers(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(servers) != 2 {
		t.Fatalf("expected 2 servers, got %d", len(servers))
	}
	if servers[0].ID != "alpha" || servers[1].ID != "zebra" {
		t.Fatalf("expected sorted order alpha,zebra, got %s,%s", servers[0].ID, servers[1].ID)
	}

	alpha := servers[0]
	if alpha.Name != "alpha" || alpha.Transport != mcp.TransportStdio {
		t.Fatalf("unexpected alpha server config: %+v", alpha)
	}
	if !alpha.AutoStart {
		t.Fatal("expected AutoStart to default to true")
	}
	if alpha.Env["KEY"] != "value" {
		t.Fatalf("expected env to be carried through, got %+v", alpha.Env)
	}
}

func TestLoadServersRejectsMissingCommand(t *testing.T) {
	path := writeTempFile(t, `{"mcpServers": {"broken": {}}}`)

	if _, err := LoadServers(path); err == nil {
		t.Fatal("expected an error for a server missing its command")
	}
}

func TestLoadServersRejectsMissingFile(t *testing.T) {
	if _, err := LoadServers(filepath.Join(t.TempDir(), "does-not-exist.json")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestLoadServersRejectsMalformedJSON(t *testing.T) {
	path := writeTempFile(t, `{not valid json`)
	if _, err := LoadServers(path); err == nil {
		t.Fatal("expected an error for malformed JSON")
	}
}
