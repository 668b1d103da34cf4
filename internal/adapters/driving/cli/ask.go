package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driving"
)

var (
	askPDF     string
	askPreview bool
)

// stdin is where questions are read from when none is given as arguments.
var stdin io.Reader = os.Stdin

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a single question",
	Long: `Ask the model one question and stream the answer to stdout.

With --pdf the question is asked about the document: its text is split into
chunks and each chunk is sent to the model together with the question. Without
--pdf the question is sent as a plain chat message.

When no question is given and stdin is not a terminal, it is read from stdin.`,
	Example: `  pdfchat ask --pdf report.pdf "What are the key findings?"
  echo "Summarise this" | pdfchat ask --pdf report.pdf`,
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askPDF, "pdf", "f", "", "PDF to ask about")
	askCmd.Flags().BoolVar(&askPreview, "preview", false, "print the start of the extracted text before answering")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	s, err := requireServices()
	if err != nil {
		return err
	}

	question, err := readQuestion(args)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	model, err := s.Models.Resolve(ctx, preferredModel(s))
	if err != nil {
		return describe(cmd, err)
	}

	session := s.Sessions.Create()
	defer s.Sessions.End(session.Conversation().ID())

	out := cmd.OutOrStdout()

	if askPDF == "" {
		_, err = session.Conversation().Ask(ctx, question, model, func(token string) {
			fmt.Fprint(out, token)
		})
		fmt.Fprintln(out)
		return describe(cmd, err)
	}

	docs := session.Documents()
	if err := loadPDF(cmd, docs, askPDF); err != nil {
		return describe(cmd, err)
	}
	if askPreview {
		fmt.Fprintln(out, docs.Document().Preview(s.Settings.Document.PreviewChars))
		fmt.Fprintln(out, strings.Repeat("─", 40))
	}

	_, err = docs.Answer(ctx, question, model, func(f driving.Fragment) {
		fmt.Fprint(out, f.Text)
	})
	fmt.Fprintln(out)
	return describe(cmd, err)
}

// readQuestion joins args, falling back to piped stdin.
func readQuestion(args []string) (string, error) {
	question := strings.TrimSpace(strings.Join(args, " "))
	if question != "" {
		return question, nil
	}

	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return "", errors.New("no question given: pass it as an argument or pipe it on stdin")
	}

	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read question: %w", err)
	}
	question = strings.TrimSpace(string(data))
	if question == "" {
		return "", errors.New("no question given: pass it as an argument or pipe it on stdin")
	}
	return question, nil
}

// loadPDF extracts and chunks the file at path into docs.
func loadPDF(cmd *cobra.Command, docs driving.DocumentQA, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrExtraction, err)
	}
	defer f.Close()

	doc, err := docs.Load(cmd.Context(), filepath.Base(path), f)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Loaded %s: %d pages, %d chunks\n", doc.Name, doc.Pages, len(docs.Chunks()))
	return nil
}
