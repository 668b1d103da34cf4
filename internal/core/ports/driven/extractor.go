package driven

import (
	"context"
	"io"
)

// TextExtractor turns an uploaded document into plain text.
type TextExtractor interface {
	// Extract reads the whole document and returns its text with pages
	// concatenated in page order. Parse failures are returned unchanged.
	Extract(ctx context.Context, r io.Reader) (ExtractedText, error)
}

// ExtractedText is the output of a TextExtractor.
type ExtractedText struct {
	Text  string
	Pages int
}
