// Package pdf extracts plain text from PDF documents.
package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/custodia-labs/pdfchat/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// DefaultMaxSize is the largest document read into memory.
const DefaultMaxSize = 64 << 20

// ErrTooLarge indicates the document exceeds the configured size.
var ErrTooLarge = errors.New("document too large")

// Extractor reads a PDF and concatenates the plain text of its pages in order.
type Extractor struct {
	maxSize int64
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithMaxSize sets the largest accepted document in bytes.
func WithMaxSize(n int64) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.maxSize = n
		}
	}
}

// NewExtractor creates a PDF text extractor.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{maxSize: DefaultMaxSize}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract reads the whole document from r. A page whose text cannot be
// decoded fails the whole extraction.
func (e *Extractor) Extract(ctx context.Context, r io.Reader) (text driven.ExtractedText, err error) {
	data, err := io.ReadAll(io.LimitReader(r, e.maxSize+1))
	if err != nil {
		return driven.ExtractedText{}, fmt.Errorf("read document: %w", err)
	}
	if int64(len(data)) > e.maxSize {
		return driven.ExtractedText{}, fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, e.maxSize)
	}
	if !bytes.HasPrefix(bytes.TrimLeft(data, "\x00\t\r\n "), []byte("%PDF-")) {
		return driven.ExtractedText{}, errors.New("not a PDF file")
	}

	// The parser panics on some malformed inputs.
	defer func() {
		if rec := recover(); rec != nil {
			text = driven.ExtractedText{}
			err = fmt.Errorf("malformed PDF: %v", rec)
		}
	}()

	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return driven.ExtractedText{}, fmt.Errorf("open PDF: %w", err)
	}

	var buf strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return driven.ExtractedText{}, err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return driven.ExtractedText{}, fmt.Errorf("page %d: %w", i, err)
		}
		buf.WriteString(content)
	}

	return driven.ExtractedText{Text: buf.String(), Pages: numPages}, nil
}
