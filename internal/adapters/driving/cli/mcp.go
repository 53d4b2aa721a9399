package cli

import (
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/rentsync/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Expose rentsync to AI assistants",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the review queue and calendars over MCP",
	Long: `Serve rentsync over the Model Context Protocol.

Assistants get four tools (sync_connection, list_review_items,
resolve_review_item, property_calendar) and read-only resources for
connections, open review items and property calendars.

Stdio is the default and suits desktop assistants that launch the binary
themselves:

  rentsync mcp serve

With --port the server speaks streamable HTTP instead. It binds to
127.0.0.1 unless --host says otherwise:

  rentsync mcp serve --port 8080

Desktop assistant configuration:
  {
    "mcpServers": {
      "rentsync": {"command": "/path/to/rentsync", "args": ["mcp", "serve"]}
    }
  }`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

var (
	mcpPort int
	mcpHost string
)

func init() {
	mcpServeCmd.Flags().IntVarP(&mcpPort, "port", "p", 0, "serve HTTP on this port (0 = stdio)")
	mcpServeCmd.Flags().StringVar(&mcpHost, "host", "127.0.0.1", "interface to bind with --port")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	server, err := mcp.NewServer(&mcp.Ports{
		Review:     reviewService,
		Sync:       syncOrchestrator,
		Calendar:   calendarService,
		Connection: connectionService,
	}, version)
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	if mcpPort <= 0 {
		return server.Run(ctx)
	}

	ln, err := net.Listen("tcp", net.JoinHostPort(mcpHost, strconv.Itoa(mcpPort)))
	if err != nil {
		return fmt.Errorf("listening for MCP: %w", err)
	}
	cmd.Printf("MCP server listening on http://%s\n", ln.Addr())
	return server.RunHTTP(ctx, ln)
}
