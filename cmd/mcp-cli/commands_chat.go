package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sysid/mcp-cli/internal/agent"
	"github.com/sysid/mcp-cli/internal/mcp"
)

const defaultSystemPrompt = `You are a helpful assistant with access to tools provided by connected MCP servers. Use them when they help answer the user's request.`

// buildOrchestrator wires a manager's tool catalog and a resolved provider
// into a ready-to-run agentic loop, returning the manager so the caller can
// close it once the conversation ends.
func buildOrchestrator(ctx context.Context, f *flags) (*agent.AgenticLoop, *mcp.Manager, error) {
	mgr, err := openManager(ctx, f)
	if err != nil {
		return nil, nil, err
	}

	provider, model, err := resolveProvider(f)
	if err != nil {
		closeManager(mgr)
		return nil, nil, err
	}

	registry := agent.NewToolRegistry()
	names := mcp.RegisterTools(registry, mgr)
	registry.SetNameResolver(mcp.NewToolNameResolver(mgr, names))

	loop := agent.NewAgenticLoop(provider, registry, agent.DefaultLoopConfig(), model, defaultSystemPrompt)
	return loop, mgr, nil
}

func buildChatCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "chat <message>",
		Short: "Send a single message and print the assistant's reply",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loop, mgr, err := buildOrchestrator(cmd.Context(), f)
			if err != nil {
				return err
			}
			defer closeManager(mgr)

			return runTurn(cmd.Context(), loop, args[0], cmd.OutOrStdout())
		},
	}
}

func buildInteractiveCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "interactive",
		Short: "Start an interactive chat session",
		RunE: func(cmd *cobra.Command, args []string) error {
			loop, mgr, err := buildOrchestrator(cmd.Context(), f)
			if err != nil {
				return err
			}
			defer closeManager(mgr)

			out := cmd.OutOrStdout()
			in := bufio.NewScanner(cmd.InOrStdin())
			for {
				fmt.Fprint(out, "> ")
				if !in.Scan() {
					if err := in.Err(); err != nil && err != io.EOF {
						return err
					}
					return nil
				}

				line := strings.TrimSpace(in.Text())
				if line == "" {
					continue
				}
				if line == "/exit" || line == "/quit" {
					return nil
				}

				if err := cmd.Context().Err(); err != nil {
					return err
				}
				if err := runTurn(cmd.Context(), loop, line, out); err != nil {
					fmt.Fprintf(out, "error: %v\n", err)
				}
			}
		},
	}
}

// runTurn drives one user turn through the orchestrator, streaming assistant
// text to out as it arrives and printing a one-line marker for each tool call.
func runTurn(ctx context.Context, loop *agent.AgenticLoop, message string, out io.Writer) error {
	chunks, err := loop.Run(ctx, message)
	if err != nil {
		return err
	}

	for chunk := range chunks {
		switch {
		case chunk.Error != nil:
			return chunk.Error
		case chunk.ToolCall != nil:
			fmt.Fprintf(out, "\n[tool call: %s]\n", chunk.ToolCall.Name)
		case chunk.ToolResult != nil:
			fmt.Fprintf(out, "[tool result: %s]\n", summarize(chunk.ToolResult.Content))
		case chunk.Text != "":
			fmt.Fprint(out, chunk.Text)
		}
	}
	fmt.Fprintln(out)
	return nil
}

func summarize(content string) string {
	const maxLen = 120
	content = strings.TrimSpace(content)
	if len(content) <= maxLen {
		return content
	}
	return content[:maxLen] + "..."
}
