package driven

import (
	"context"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
)

// ChatModel is the boundary to a model-serving endpoint.
//
// Implementations may include:
//   - Ollama (native /api/chat)
//   - Any OpenAI-compatible server (Ollama /v1, LM Studio, vLLM)
type ChatModel interface {
	// ChatStream sends messages to the model and returns the reply as a stream of
	// text fragments. Cancelling ctx aborts the request and the stream.
	ChatStream(ctx context.Context, req ChatRequest) (TokenStream, error)

	// ListModels returns the identifiers of locally available models.
	// An empty list is a valid answer, not an error.
	ListModels(ctx context.Context) ([]string, error)

	// Ping validates the server is reachable without running inference.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// TokenStream is a finite, pull-based sequence of reply fragments.
type TokenStream interface {
	// Next returns the next fragment. It returns io.EOF once the reply is
	// complete and any other error if the stream broke.
	Next() (string, error)

	// Close releases the underlying connection. It is safe to call more than once.
	Close() error
}

// ChatRequest is one model invocation.
type ChatRequest struct {
	// Model is the model identifier, as returned by ListModels.
	Model string

	// Messages is the ordered conversation sent as context.
	Messages []domain.Message

	// Options tunes generation. The zero value uses server defaults.
	Options ChatOptions
}

// ChatOptions configures chat behaviour.
type ChatOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64
}
