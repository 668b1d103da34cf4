package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/pdfchat/internal/adapters/driving/httpapi"
)

// maxUploadBytes caps PDFs posted to the HTTP API.
const maxUploadBytes = 64 << 20

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serve chat and document Q&A over HTTP.

Answers are streamed as newline-delimited JSON events. The listen address
defaults to server.addr from the configuration.`,
	Example: `  pdfchat serve
  pdfchat serve --addr 127.0.0.1:9000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from server.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	s, err := requireServices()
	if err != nil {
		return err
	}

	addr := serveAddr
	if addr == "" {
		addr = s.Settings.Server.Addr
	}

	server, err := httpapi.NewServer(s.Models, s.Sessions, httpapi.Config{
		Model:          preferredModel(s),
		PreviewChars:   s.Settings.Document.PreviewChars,
		MaxUploadBytes: maxUploadBytes,
	})
	if err != nil {
		return err
	}

	cmd.Printf("HTTP API listening on http://%s\n", addr)
	return server.Run(cmd.Context(), addr)
}
