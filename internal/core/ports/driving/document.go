package driving

import (
	"context"
	"io"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
)

// Fragment is one streamed piece of a document answer.
type Fragment struct {
	// ChunkIndex is the zero-based chunk the fragment answers.
	ChunkIndex int

	// Text is the streamed text.
	Text string
}

// FragmentHandler receives document answer fragments as they stream in.
type FragmentHandler func(Fragment)

// DocumentQA answers questions about the currently loaded document.
type DocumentQA interface {
	// Load extracts and chunks a document, replacing any previous one.
	Load(ctx context.Context, name string, r io.Reader) (*domain.Document, error)

	// Document returns the loaded document, or nil.
	Document() *domain.Document

	// Chunks returns the chunk sequence of the loaded document.
	Chunks() []domain.Chunk

	// Answer asks question against every chunk of the loaded document in order
	// and returns the concatenated replies.
	Answer(ctx context.Context, question, model string, onFragment FragmentHandler) (string, error)
}
