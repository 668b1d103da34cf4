package driven

// PromptStore provides the templates sent to the model.
type PromptStore interface {
	// Load returns the template for name. Edits to the backing file are
	// picked up on the next call.
	Load(name string) (string, error)
}

// Prompt names.
const (
	// PromptDocumentContext is the system message sent with each document chunk.
	// The chunk text replaces its first %s.
	PromptDocumentContext = "document_context"
)
