package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/pdfchat/internal/adapters/driving/mcp"
)

var mcpPort int

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Model Context Protocol integration",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose PDF Q&A as MCP tools",
	Long: `Serve the list_models, load_document, ask_document and chat tools.

The server speaks JSON-RPC over stdio unless --port is given, in which case it
serves streamable HTTP on that port. All calls share one session, so a loaded
document stays loaded until the server exits.

To register it with an assistant that launches MCP servers:

  {
    "mcpServers": {
      "pdfchat": {"command": "pdfchat", "args": ["mcp", "serve"]}
    }
  }`,
	Example: `  pdfchat mcp serve
  pdfchat mcp serve --port 8080 --model llama3.2`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntVarP(&mcpPort, "port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	if mcpPort < 0 || mcpPort > 65535 {
		return fmt.Errorf("invalid port %d", mcpPort)
	}

	s, err := requireServices()
	if err != nil {
		return err
	}

	server, err := mcp.NewServer(&mcp.Ports{
		Models:   s.Models,
		Sessions: s.Sessions,
		History:  s.History,
		Model:    preferredModel(s),
	})
	if err != nil {
		return err
	}

	if mcpPort == 0 {
		return server.Run(cmd.Context())
	}
	return server.RunHTTP(cmd.Context(), fmt.Sprintf(":%d", mcpPort))
}
