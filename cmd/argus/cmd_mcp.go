package main

import (
	"context"

	"github.com/spf13/cobra"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"argus/internal/halluc"
	"argus/internal/logging"
	mcpserver "argus/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server over stdio for agent-host integration",
	Long: `Starts an MCP server over stdin/stdout exposing brief generation,
citation verification, hallucination evaluation, and slice reporting
as tools.

The server monitors for parent process death. When the host disconnects,
the server self-terminates to prevent zombie processes.`,
	RunE: runMCP,
}

func runMCP(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	orch, err := buildOrchestrator(cfg, st)
	if err != nil {
		return err
	}
	gw, err := cfg.Gateway()
	if err != nil {
		return err
	}
	eval := halluc.NewEvaluator(gw, halluc.WithLogger(logging.New("halluc")))

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	mcpserver.WatchParent(ctx, cancel)

	logging.New("mcp").Info("starting argus MCP server over stdio (parent watchdog active)")
	return mcpserver.NewServer(st, orch, eval).Run(ctx, &sdkmcp.StdioTransport{})
}
