// Package chunker provides a fixed-size text chunking processor.
package chunker

import (
	"fmt"
	"unicode/utf8"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = domain.DefaultChunkSize

// Split cuts text into consecutive pieces of size characters.
// The last piece may be shorter. Pieces never overlap and never split a
// UTF-8 sequence, so joining them reproduces text exactly.
func Split(text string, size int) ([]string, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: chunk size must be at least 1, got %d", domain.ErrInvalidConfiguration, size)
	}
	if text == "" {
		return nil, nil
	}

	pieces := make([]string, 0, utf8.RuneCountInString(text)/size+1)
	start, count := 0, 0
	for i := range text {
		if count == size {
			pieces = append(pieces, text[start:i])
			start, count = i, 0
		}
		count++
	}
	pieces = append(pieces, text[start:])

	return pieces, nil
}

// Processor splits document text into fixed-size chunks.
type Processor struct {
	chunkSize int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
// Sizes below one are kept and reported as configuration errors by Process.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		p.chunkSize = size
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the configured chunk size.
func (p *Processor) ChunkSize() int {
	return p.chunkSize
}

// Process splits the document text into positioned chunks.
func (p *Processor) Process(doc *domain.Document) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: document is nil", domain.ErrInvalidInput)
	}

	pieces, err := Split(doc.Text, p.chunkSize)
	if err != nil {
		return nil, err
	}

	chunks := make([]domain.Chunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = domain.Chunk{Position: i, Content: piece}
	}

	return chunks, nil
}
