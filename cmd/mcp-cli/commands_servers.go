package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func buildServersCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "servers",
		Short: "List configured MCP servers and their connection state",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openManager(cmd.Context(), f)
			if err != nil {
				return err
			}
			defer closeManager(mgr)

			out := cmd.OutOrStdout()
			statuses := mgr.Status()
			if len(statuses) == 0 {
				fmt.Fprintln(out, "No MCP servers configured.")
				return nil
			}
			for _, status := range statuses {
				state := "disconnected"
				if status.Connected {
					state = "connected"
				}
				fmt.Fprintf(out, "%s (%s) - %s\n", status.ID, status.Name, state)
				if status.Connected {
					fmt.Fprintf(out, "  tools: %d  resources: %d  prompts: %d\n", status.Tools, status.Resources, status.Prompts)
				}
			}
			return nil
		},
	}
}

func buildPingCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Ping connected MCP servers and report their liveness",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openManager(cmd.Context(), f)
			if err != nil {
				return err
			}
			defer closeManager(mgr)

			out := cmd.OutOrStdout()
			clients := mgr.Clients()
			if len(clients) == 0 {
				fmt.Fprintln(out, "No MCP servers connected.")
				return nil
			}

			failed := false
			for id, client := range clients {
				ok := client.Ping(cmd.Context())
				if ok {
					fmt.Fprintf(out, "%s: ok (%s)\n", id, client.State())
				} else {
					fmt.Fprintf(out, "%s: unreachable (%s)\n", id, client.State())
					failed = true
				}
			}
			if failed {
				return fmt.Errorf("one or more servers failed to respond to ping")
			}
			return nil
		},
	}
}

func buildToolsCmd(f *flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Inspect and invoke MCP tools",
	}
	cmd.AddCommand(buildToolsListCmd(f), buildToolsCallCmd(f))
	return cmd
}

func buildToolsListCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tools from connected MCP servers",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openManager(cmd.Context(), f)
			if err != nil {
				return err
			}
			defer closeManager(mgr)

			out := cmd.OutOrStdout()
			all := mgr.AllTools()
			if len(all) == 0 {
				fmt.Fprintln(out, "No tools available.")
				return nil
			}
			for id, tools := range all {
				fmt.Fprintf(out, "%s:\n", id)
				for _, tool := range tools {
					fmt.Fprintf(out, "  %s.%s - %s\n", id, tool.Name, tool.Description)
				}
			}
			return nil
		},
	}
}

func buildToolsCallCmd(f *flags) *cobra.Command {
	var rawArgs []string
	cmd := &cobra.Command{
		Use:   "call <server.tool>",
		Short: "Call a tool by its fully-qualified name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			serverID, toolName, err := splitQualified(args[0])
			if err != nil {
				return err
			}

			mgr, err := openManager(cmd.Context(), f)
			if err != nil {
				return err
			}
			defer closeManager(mgr)

			toolArgs, err := parseAnyArgs(rawArgs)
			if err != nil {
				return err
			}

			result, err := mgr.CallTool(cmd.Context(), serverID, toolName, toolArgs)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if result == nil || len(result.Content) == 0 {
				fmt.Fprintln(out, "No result.")
				return nil
			}
			for _, item := range result.Content {
				if item.Type == "text" {
					fmt.Fprintln(out, item.Text)
					continue
				}
				payload, err := json.Marshal(item)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(payload))
			}
			if result.IsError {
				return fmt.Errorf("tool call reported an error")
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&rawArgs, "arg", nil, "Tool argument, key=value (value parsed as JSON when possible)")
	return cmd
}

func buildPromptsCmd(f *flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prompts",
		Short: "Inspect MCP prompts",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List prompts from connected MCP servers",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openManager(cmd.Context(), f)
			if err != nil {
				return err
			}
			defer closeManager(mgr)

			out := cmd.OutOrStdout()
			all := mgr.AllPrompts()
			if len(all) == 0 {
				fmt.Fprintln(out, "No prompts available.")
				return nil
			}
			for id, prompts := range all {
				fmt.Fprintf(out, "%s:\n", id)
				for _, prompt := range prompts {
					fmt.Fprintf(out, "  %s.%s - %s\n", id, prompt.Name, prompt.Description)
				}
			}
			return nil
		},
	})
	return cmd
}

func buildResourcesCmd(f *flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resources",
		Short: "Inspect MCP resources",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List resources from connected MCP servers",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openManager(cmd.Context(), f)
			if err != nil {
				return err
			}
			defer closeManager(mgr)

			out := cmd.OutOrStdout()
			all := mgr.AllResources()
			if len(all) == 0 {
				fmt.Fprintln(out, "No resources available.")
				return nil
			}
			for id, resources := range all {
				fmt.Fprintf(out, "%s:\n", id)
				for _, res := range resources {
					fmt.Fprintf(out, "  %s (%s)\n", res.URI, res.Name)
				}
			}
			return nil
		},
	})
	return cmd
}

func splitQualified(value string) (server, name string, err error) {
	parts := strings.SplitN(value, ".", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("expected format <server>.<name>, got %q", value)
	}
	return parts[0], parts[1], nil
}

func parseAnyArgs(items []string) (map[string]any, error) {
	if len(items) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(items))
	for _, item := range items {
		key, value, err := parseKeyValue(item)
		if err != nil {
			return nil, err
		}
		var parsed any
		if err := json.Unmarshal([]byte(value), &parsed); err == nil {
			out[key] = parsed
		} else {
			out[key] = value
		}
	}
	return out, nil
}

func parseKeyValue(item string) (key, value string, err error) {
	parts := strings.SplitN(item, "=", 2)
	if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" {
		return "", "", fmt.Errorf("invalid arg %q, expected key=value", item)
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), nil
}
