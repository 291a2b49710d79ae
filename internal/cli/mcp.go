package cli

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	fpmcp "github.com/valter-silva-au/flowpulse/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  "Commands for running the FlowPulse MCP (Model Context Protocol) server.",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the FlowPulse MCP server on stdio",
	Long: `Start the FlowPulse MCP server on stdio transport.

The server exposes the latency stream as MCP tools that AI coding assistants
can call: synthesize_event, summarize_events, list_events, import_events,
get_alerts.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Service == nil {
			return errNotInitialized
		}

		srv := fpmcp.NewServer(Service, AlertEngine, appVersion)

		ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt)
		defer stop()

		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("running MCP server: %w", err)
		}

		return nil
	},
}

func init() {
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}
