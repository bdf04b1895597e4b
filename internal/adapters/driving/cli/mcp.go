package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sorta/internal/adapters/driving/mcp"
	"github.com/custodia-labs/sorta/internal/logger"
)

var mcpHTTPAddr string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server for AI assistant integration.

By default, the server communicates over stdio using JSON-RPC and can be
used with Claude Desktop and other MCP-compatible AI assistants. Logs go to
stderr so they never corrupt the protocol stream.

Use --http to serve over HTTP instead, for the MCP Inspector or remote
access.

Examples:
  # Stdio mode (default)
  sorta mcp

  # HTTP mode
  sorta mcp --http :8080

Claude Desktop configuration (claude_desktop_config.json):
  {
    "mcpServers": {
      "sorta": {
        "command": "/path/to/sorta",
        "args": ["mcp"]
      }
    }
  }`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().StringVar(&mcpHTTPAddr, "http", "", "serve over HTTP on this address instead of stdio")
	rootCmd.AddCommand(mcpCmd)
}

// mcpPorts builds the server ports from the wired services.
func mcpPorts() *mcp.Ports {
	if services == nil {
		return &mcp.Ports{}
	}
	c := cfg()
	return &mcp.Ports{
		Organiser:    services.Organiser,
		Cascade:      services.Cascade,
		Classify:     services.Classify,
		Relocation:   services.Relocation,
		Watch:        services.Watch,
		Browse:       services.Browse,
		History:      services.History,
		Folders:      func() []string { return c.Library.Folders },
		LibraryRoot:  c.Library.Root,
		ConfirmBelow: c.Classify.EscalateBelow,
	}
}

func runMCP(cmd *cobra.Command, _ []string) error {
	server, err := mcp.NewServer(mcpPorts())
	if err != nil {
		return err
	}
	server.SetLogger(logger.Named("mcp"))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if services.Background != nil {
		go services.Background(ctx)
	}

	if mcpHTTPAddr != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on http://%s\n", mcpHTTPAddr)
		return server.RunHTTP(ctx, mcpHTTPAddr)
	}

	logger.SetOutput(os.Stderr)
	return server.Run(ctx)
}
