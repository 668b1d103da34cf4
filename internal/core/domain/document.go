package domain

import "time"

// Document is the extracted text of one loaded PDF.
// Loading a new document supersedes the previous one; texts are never merged.
type Document struct {
	// ID is the unique identifier for this load.
	ID string

	// Name is the file name the document was loaded from.
	Name string

	// Text is the concatenated plain text of all pages, in page order.
	Text string

	// Pages is the number of pages in the source file.
	Pages int

	// LoadedAt is when the document was extracted.
	LoadedAt time.Time
}

// Preview returns at most n characters of the document text.
func (d *Document) Preview(n int) string {
	if d == nil || n <= 0 {
		return ""
	}
	runes := []rune(d.Text)
	if len(runes) <= n {
		return d.Text
	}
	return string(runes[:n])
}

// Chunk is a contiguous, non-overlapping slice of document text.
// It is identified only by its position in the chunk sequence.
type Chunk struct {
	// Position is the zero-based ordinal within the document.
	Position int

	// Content is the chunk text.
	Content string
}
