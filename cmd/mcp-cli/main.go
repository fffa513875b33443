// Command mcp-cli is a command-line Model Context Protocol client: it
// launches MCP servers as child processes, exposes their tools to an LLM
// through a namespaced tool catalog, and drives a tool-use chat loop against
// whichever provider (Anthropic, OpenAI, Ollama) is configured.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Build information, populated by ldflags during release builds.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := buildRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// flags holds the persistent flag values shared by every subcommand.
type flags struct {
	configFile string
	server     string
	provider   string
	model      string
}

func buildRootCmd() *cobra.Command {
	f := &flags{}

	rootCmd := &cobra.Command{
		Use:   "mcp-cli",
		Short: "Command-line Model Context Protocol client",
		Long: `mcp-cli connects to one or more MCP servers over stdio, exposes their
tools under namespaced, LLM-safe names, and drives a tool-use chat loop
against Anthropic, OpenAI, or Ollama.`,
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&f.configFile, "config-file", "mcp-servers.json", "Path to the server launch descriptor file")
	rootCmd.PersistentFlags().StringVar(&f.server, "server", "", "Restrict the command to a single server ID")
	rootCmd.PersistentFlags().StringVar(&f.provider, "provider", "anthropic", "LLM provider to use (anthropic, openai, ollama)")
	rootCmd.PersistentFlags().StringVar(&f.model, "model", "", "Model override (defaults to the provider's configured default)")

	rootCmd.AddCommand(
		buildServersCmd(f),
		buildPingCmd(f),
		buildToolsCmd(f),
		buildPromptsCmd(f),
		buildResourcesCmd(f),
		buildChatCmd(f),
		buildInteractiveCmd(f),
	)

	return rootCmd
}
