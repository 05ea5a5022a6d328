package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ion-cli/ion/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Manage MCP (Model Context Protocol) servers",
	Long: `Manage the MCP servers ion can fall back on for tools the local
registry doesn't cover.

Examples:
  ion mcp list                    list configured servers
  ion mcp add @playwright/mcp     add a bundled or registry server
  ion mcp remove playwright       remove a server
  ion mcp info playwright         start a server and show its tools`,
}

var mcpListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured MCP servers",
	RunE:  mcpList,
}

var mcpAddCmd = &cobra.Command{
	Use:   "add <name-or-url>",
	Short: "Add an MCP server from the bundled list, registry, or URL",
	Long: `The argument can be a URL (https://example.com/mcp, HTTP transport),
a bundled server name, or a package name to search the registry for.`,
	Args: cobra.ExactArgs(1),
	RunE: mcpAdd,
}

var mcpRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove an MCP server",
	Args:  cobra.ExactArgs(1),
	RunE:  mcpRemove,
}

var mcpInfoCmd = &cobra.Command{
	Use:   "info <name>",
	Short: "Start an MCP server and show its available tools",
	Args:  cobra.ExactArgs(1),
	RunE:  mcpInfo,
}

var mcpPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the MCP configuration file path",
	RunE:  mcpPath,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.AddCommand(mcpListCmd)
	mcpCmd.AddCommand(mcpAddCmd)
	mcpCmd.AddCommand(mcpRemoveCmd)
	mcpCmd.AddCommand(mcpInfoCmd)
	mcpCmd.AddCommand(mcpPathCmd)
}

func mcpList(cmd *cobra.Command, args []string) error {
	cfg, err := mcp.LoadConfig()
	if err != nil {
		return fmt.Errorf("load mcp config: %w", err)
	}

	if len(cfg.Servers) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no MCP servers configured")
		fmt.Fprintln(cmd.OutOrStdout(), "add one with: ion mcp add <name>")
		return nil
	}

	names := cfg.ServerNames()
	sort.Strings(names)
	fmt.Fprintf(cmd.OutOrStdout(), "configured MCP servers (%d):\n\n", len(names))
	for _, name := range names {
		server := cfg.Servers[name]
		fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", name)
		if server.TransportType() == "http" {
			fmt.Fprintf(cmd.OutOrStdout(), "    url: %s\n", server.URL)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "    command: %s %s\n", server.Command, strings.Join(server.Args, " "))
		}
	}

	path, _ := mcp.DefaultConfigPath()
	fmt.Fprintf(cmd.OutOrStdout(), "\nconfig file: %s\n", path)
	return nil
}

func mcpAdd(cmd *cobra.Command, args []string) error {
	name := args[0]

	if strings.HasPrefix(name, "http://") || strings.HasPrefix(name, "https://") {
		return mcpAddURL(cmd, name)
	}

	nameLower := strings.ToLower(name)
	for _, bundled := range mcp.GetBundledServers() {
		if strings.ToLower(bundled.Name) == nameLower ||
			strings.ToLower(bundled.Package) == nameLower ||
			strings.HasSuffix(strings.ToLower(bundled.Package), "/"+nameLower) {
			return mcpAddConfig(cmd, bundled.Name, bundled.ToServerConfig())
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	registry := mcp.NewRegistryClient()
	result, err := registry.Search(ctx, mcp.SearchOptions{Query: name, Limit: 20})
	if err != nil {
		return fmt.Errorf("search registry: %w", err)
	}
	if len(result.Servers) == 0 {
		return fmt.Errorf("no servers found matching %q", name)
	}

	best := &result.Servers[0].Server
	serverConfig, _ := best.ToServerConfig()
	if serverConfig.Command == "" {
		return fmt.Errorf("no supported package found for %s (requires npm or pypi)", best.Name)
	}
	localName := best.Name
	if localName == "" {
		localName = name
	}
	return mcpAddConfig(cmd, localName, serverConfig)
}

func mcpAddURL(cmd *cobra.Command, urlStr string) error {
	localName := strings.NewReplacer("https://", "", "http://", "", "/", "-", ".", "-").Replace(urlStr)
	localName = strings.Trim(localName, "-")
	return mcpAddConfig(cmd, localName, mcp.ServerConfig{Type: "http", URL: urlStr})
}

func mcpAddConfig(cmd *cobra.Command, name string, serverConfig mcp.ServerConfig) error {
	cfg, err := mcp.LoadConfig()
	if err != nil {
		return fmt.Errorf("load mcp config: %w", err)
	}
	if _, exists := cfg.Servers[name]; exists {
		return fmt.Errorf("server %q already exists in config", name)
	}
	cfg.AddServer(name, serverConfig)
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("save mcp config: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "added %q\n", name)
	return nil
}

func mcpRemove(cmd *cobra.Command, args []string) error {
	cfg, err := mcp.LoadConfig()
	if err != nil {
		return fmt.Errorf("load mcp config: %w", err)
	}
	if !cfg.RemoveServer(args[0]) {
		return fmt.Errorf("server %q not found in config", args[0])
	}
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("save mcp config: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "removed %q\n", args[0])
	return nil
}

func mcpInfo(cmd *cobra.Command, args []string) error {
	name := args[0]
	cfg, err := mcp.LoadConfig()
	if err != nil {
		return fmt.Errorf("load mcp config: %w", err)
	}
	serverCfg, ok := cfg.Servers[name]
	if !ok {
		return fmt.Errorf("server %q not found in config", name)
	}

	client := mcp.NewClient(name, serverCfg)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := client.Start(ctx); err != nil {
		return fmt.Errorf("start %s: %w", name, err)
	}
	defer client.Stop()

	tools := client.Tools()
	mcp.CacheTools(name, tools)
	fmt.Fprintf(cmd.OutOrStdout(), "available tools (%d):\n", len(tools))
	for _, t := range tools {
		fmt.Fprintf(cmd.OutOrStdout(), "  - %s\n", t.Name)
		if t.Description != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "    %s\n", t.Description)
		}
	}
	return nil
}

func mcpPath(cmd *cobra.Command, args []string) error {
	path, err := mcp.DefaultConfigPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s (not created yet)\n", path)
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), path)
	}
	return nil
}
