package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/pdfchat/internal/adapters/driving/tui"
	"github.com/custodia-labs/pdfchat/internal/logger"
)

var (
	chatPDF   string
	chatWatch bool
	chatStyle string
)

// chatCmd represents the chat command.
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open the interactive chat",
	Long: `Open the interactive terminal chat.

Type to chat with the selected model. Load a PDF with /open <file> (or --pdf)
and ask about it with /ask <question>; every chunk of the document is sent to
the model and the answers are shown as they stream in.

Controls:
  enter    - Send
  esc      - Cancel the reply in progress
  ctrl+p   - Pick a model
  ctrl+t   - Show the extracted text
  f1       - Help
  ctrl+c   - Quit`,
	RunE: runChat,
}

func init() {
	for _, c := range []*cobra.Command{rootCmd, chatCmd} {
		c.Flags().StringVarP(&chatPDF, "pdf", "f", "", "PDF to load on startup")
		c.Flags().BoolVarP(&chatWatch, "watch", "w", false, "reload the PDF when it changes on disk")
		c.Flags().StringVar(&chatStyle, "style", "", "markdown style for replies (dark, light, notty); detected when empty")
	}
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) (err error) {
	// Add panic recovery to get stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			if logger.IsVerbose() {
				fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
			}
			err = fmt.Errorf("TUI crashed: %v", r)
		}
	}()

	s, err := requireServices()
	if err != nil {
		return err
	}

	session := s.Sessions.Create()
	defer s.Sessions.End(session.Conversation().ID())

	ports := &tui.Ports{
		Models:  s.Models,
		Session: session,
	}
	if chatWatch {
		ports.Watcher = s.Watcher
	}

	app, err := tui.NewApp(ports, tui.Options{
		Model:         preferredModel(s),
		DocumentPath:  chatPDF,
		PreviewChars:  s.Settings.Document.PreviewChars,
		MarkdownStyle: chatStyle,
	})
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}

	if err := app.WithContext(cmd.Context()).Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
