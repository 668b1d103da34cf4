// Package tui provides an interactive terminal user interface for pdfchat.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/pdfchat/internal/core/ports/driven"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driving"
)

// Ports aggregates everything the TUI drives.
type Ports struct {
	// Models discovers the installed models.
	Models driving.ModelCatalog

	// Session holds the conversation and the loaded document.
	Session driving.Session

	// Watcher reloads the document when it changes on disk. Optional.
	Watcher driven.FileWatcher
}

// Options are the user's startup choices.
type Options struct {
	// Model is the preferred model; empty opens the picker.
	Model string

	// DocumentPath is loaded on startup when set.
	DocumentPath string

	// PreviewChars is how much extracted text is shown after loading.
	PreviewChars int

	// MarkdownStyle is the glamour style for replies; empty detects the terminal.
	MarkdownStyle string
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Models == nil {
		return ErrMissingModelCatalog
	}
	if p.Session == nil {
		return ErrMissingSession
	}
	return nil
}
