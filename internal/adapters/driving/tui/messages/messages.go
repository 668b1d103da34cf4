// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/pdfchat/internal/core/domain"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driving"
)

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewPicker is the model picker.
	ViewPicker ViewType = iota
	// ViewChat is the chat and document question view.
	ViewChat
	// ViewPreview shows the extracted document text.
	ViewPreview
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewPicker:
		return "picker"
	case ViewChat:
		return "chat"
	case ViewPreview:
		return "preview"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ModelsDiscovered carries the models the server has installed.
type ModelsDiscovered struct {
	Discovery driving.Discovery
	Err       error
}

// ModelSelected signals the user picked a model.
type ModelSelected struct {
	Model string
}

// DocumentLoaded signals a PDF was extracted and chunked.
type DocumentLoaded struct {
	Path     string
	Document *domain.Document
	Chunks   int
	Err      error
}

// DocumentChanged signals the loaded PDF changed on disk.
type DocumentChanged struct {
	Path string
}

// ReplyKind distinguishes free-form chat from document answers.
type ReplyKind int

const (
	// ReplyChat is a turn of the conversation.
	ReplyChat ReplyKind = iota
	// ReplyDocument is an answer about the loaded document.
	ReplyDocument
)

// TokenReceived carries one streamed fragment of a reply.
type TokenReceived struct {
	Kind ReplyKind
	// Chunk is the document chunk being answered; -1 for chat.
	Chunk int
	Text  string
}

// ReplyCompleted signals the end of a streamed reply.
type ReplyCompleted struct {
	Kind ReplyKind
	Text string
	Err  error
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// RefreshModels asks for the model list to be discovered again.
type RefreshModels struct{}
