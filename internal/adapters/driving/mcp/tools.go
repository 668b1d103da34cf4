package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driving"
)

// previewChars is how much extracted text load_document returns.
const previewChars = 500

// ListModelsInput is the input schema for the list_models tool.
type ListModelsInput struct{}

// ListModelsOutput is the output schema for the list_models tool.
type ListModelsOutput struct {
	Models      []string `json:"models"`
	Unavailable bool     `json:"unavailable"`
	Hint        string   `json:"hint,omitempty"`
}

// LoadDocumentInput is the input schema for the load_document tool.
type LoadDocumentInput struct {
	Path string `json:"path" jsonschema:"absolute path of the PDF file to load"`
}

// LoadDocumentOutput is the output schema for the load_document tool.
type LoadDocumentOutput struct {
	DocumentID string `json:"document_id"`
	Name       string `json:"name"`
	Pages      int    `json:"pages"`
	Chunks     int    `json:"chunks"`
	Preview    string `json:"preview"`
}

// AskDocumentInput is the input schema for the ask_document tool.
type AskDocumentInput struct {
	Question string `json:"question" jsonschema:"the question to ask about the loaded document"`
	Model    string `json:"model,omitempty" jsonschema:"model to use (default: the configured model)"`
}

// AskDocumentOutput is the output schema for the ask_document tool.
type AskDocumentOutput struct {
	Answer string `json:"answer"`
	Model  string `json:"model"`
	Chunks int    `json:"chunks"`
}

// ChatInput is the input schema for the chat tool.
type ChatInput struct {
	Message string `json:"message" jsonschema:"the message to send"`
	Model   string `json:"model,omitempty" jsonschema:"model to use (default: the configured model)"`
}

// ChatOutput is the output schema for the chat tool.
type ChatOutput struct {
	Reply string `json:"reply"`
	Model string `json:"model"`
	Turns int    `json:"turns"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_models",
		Description: "List the models installed on the local model server",
	}, s.handleListModels)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "load_document",
		Description: "Extract the text of a PDF file so later questions can be asked about it",
	}, s.handleLoadDocument)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask_document",
		Description: "Ask the local model a question about the loaded PDF, chunk by chunk",
	}, s.handleAskDocument)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "chat",
		Description: "Send a message in the free-form conversation with the local model",
	}, s.handleChat)
}

func (s *Server) handleListModels(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListModelsInput,
) (*mcp.CallToolResult, ListModelsOutput, error) {
	discovery, err := s.ports.Models.Discover(ctx)
	if err != nil {
		return nil, ListModelsOutput{}, withHint(err)
	}

	output := ListModelsOutput{
		Models:      discovery.Models,
		Unavailable: discovery.Unavailable,
	}
	if output.Models == nil {
		output.Models = []string{}
	}
	if discovery.Unavailable {
		output.Hint = domain.Describe(domain.ErrModelUnavailable).Hint
	}
	return nil, output, nil
}

func (s *Server) handleLoadDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input LoadDocumentInput,
) (*mcp.CallToolResult, LoadDocumentOutput, error) {
	if input.Path == "" {
		return nil, LoadDocumentOutput{}, fmt.Errorf("%w: path is required", domain.ErrInvalidInput)
	}

	f, err := os.Open(input.Path)
	if err != nil {
		return nil, LoadDocumentOutput{}, withHint(fmt.Errorf("%w: %w", domain.ErrExtraction, err))
	}
	defer f.Close()

	var out LoadDocumentOutput
	err = s.use(func(session driving.Session) error {
		docs := session.Documents()
		doc, err := docs.Load(ctx, filepath.Base(input.Path), f)
		if err != nil {
			return err
		}
		out = LoadDocumentOutput{
			DocumentID: doc.ID,
			Name:       doc.Name,
			Pages:      doc.Pages,
			Chunks:     len(docs.Chunks()),
			Preview:    doc.Preview(previewChars),
		}
		return nil
	})
	if err != nil {
		return nil, LoadDocumentOutput{}, withHint(err)
	}
	return nil, out, nil
}

func (s *Server) handleAskDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskDocumentInput,
) (*mcp.CallToolResult, AskDocumentOutput, error) {
	model, err := s.resolveModel(ctx, input.Model)
	if err != nil {
		return nil, AskDocumentOutput{}, withHint(err)
	}

	var out AskDocumentOutput
	err = s.use(func(session driving.Session) error {
		docs := session.Documents()
		if docs.Document() == nil {
			return domain.ErrNoDocument
		}
		answer, err := docs.Answer(ctx, input.Question, model, nil)
		if err != nil {
			return err
		}
		out = AskDocumentOutput{Answer: answer, Model: model, Chunks: len(docs.Chunks())}
		return nil
	})
	if err != nil {
		return nil, AskDocumentOutput{}, withHint(err)
	}
	return nil, out, nil
}

func (s *Server) handleChat(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ChatInput,
) (*mcp.CallToolResult, ChatOutput, error) {
	model, err := s.resolveModel(ctx, input.Model)
	if err != nil {
		return nil, ChatOutput{}, withHint(err)
	}

	var out ChatOutput
	err = s.use(func(session driving.Session) error {
		conv := session.Conversation()
		reply, err := conv.Ask(ctx, input.Message, model, nil)
		if err != nil {
			return err
		}
		out = ChatOutput{Reply: reply, Model: model, Turns: countReplies(conv.History())}
		return nil
	})
	if err != nil {
		return nil, ChatOutput{}, withHint(err)
	}
	return nil, out, nil
}

// countReplies counts the assistant messages in history.
func countReplies(history []domain.Message) int {
	n := 0
	for _, msg := range history {
		if msg.Role == domain.RoleAssistant {
			n++
		}
	}
	return n
}
