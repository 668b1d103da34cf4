package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// ModelProvider identifies the kind of model server to talk to.
type ModelProvider string

// Available model providers.
const (
	// ModelProviderOllama is a local Ollama instance using its native API.
	ModelProviderOllama ModelProvider = "ollama"

	// ModelProviderOpenAI is any server speaking the OpenAI chat completions API,
	// including Ollama's /v1 compatibility layer and LM Studio.
	ModelProviderOpenAI ModelProvider = "openai"
)

// IsValid returns true if the provider is recognised.
func (p ModelProvider) IsValid() bool {
	switch p {
	case ModelProviderOllama, ModelProviderOpenAI:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (p ModelProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p ModelProvider) Description() string {
	switch p {
	case ModelProviderOllama:
		return "Ollama (native API)"
	case ModelProviderOpenAI:
		return "OpenAI-compatible API"
	default:
		return unknownDescription
	}
}

// DefaultDocumentContextPrompt is the system message sent with each chunk.
// The chunk text replaces the first %s.
const DefaultDocumentContextPrompt = "The user has uploaded a PDF. The content is: %s"

// Defaults used when nothing is configured.
const (
	DefaultChunkSize         = 500
	DefaultPreviewChars      = 1000
	DefaultModelTimeout      = 300 * time.Second
	DefaultMaxRetries        = 2
	DefaultRequestsPerSecond = 0 // unlimited
	DefaultBurst             = 1
	DefaultServerAddr        = "127.0.0.1:8501"
)

// ModelSettings holds model server configuration.
type ModelSettings struct {
	// Provider selects the wire protocol.
	Provider ModelProvider

	// BaseURL is the server endpoint. Empty means the provider default.
	BaseURL string

	// APIKey is sent as a bearer token. Local servers ignore it.
	APIKey string

	// Name is the preferred model. Empty means "first discovered".
	Name string

	// Timeout bounds a single request, including its streamed body.
	Timeout time.Duration

	// MaxRetries is how many times a request that failed before streaming is retried.
	MaxRetries int

	// RequestsPerSecond caps the request rate. Zero disables the limiter.
	RequestsPerSecond float64

	// Burst is the limiter bucket size.
	Burst int
}

// DocumentSettings holds document question-answering configuration.
type DocumentSettings struct {
	// ChunkSize is the number of characters sent per model request.
	ChunkSize int

	// RecordAnswers appends document questions and combined answers to the chat history.
	RecordAnswers bool

	// PreviewChars is how much extracted text is shown after a load.
	PreviewChars int
}

// ServerSettings holds HTTP API configuration.
type ServerSettings struct {
	Addr string
}

// StorageSettings holds transcript persistence configuration.
type StorageSettings struct {
	// Transcripts enables recording sessions to the local database.
	Transcripts bool

	// DataDir overrides the data directory.
	DataDir string
}

// Settings holds all application settings.
type Settings struct {
	Model    ModelSettings
	Document DocumentSettings
	Server   ServerSettings
	Storage  StorageSettings
}

// DefaultSettings returns settings with sensible defaults.
func DefaultSettings() Settings {
	return Settings{
		Model: ModelSettings{
			Provider:          ModelProviderOllama,
			Timeout:           DefaultModelTimeout,
			MaxRetries:        DefaultMaxRetries,
			RequestsPerSecond: DefaultRequestsPerSecond,
			Burst:             DefaultBurst,
		},
		Document: DocumentSettings{
			ChunkSize:    DefaultChunkSize,
			PreviewChars: DefaultPreviewChars,
		},
		Server: ServerSettings{
			Addr: DefaultServerAddr,
		},
		Storage: StorageSettings{
			Transcripts: true,
		},
	}
}

// Validate reports the first setting that can never work.
func (s Settings) Validate() error {
	if !s.Model.Provider.IsValid() {
		return fmt.Errorf("%w: unknown model provider %q", ErrInvalidConfiguration, s.Model.Provider)
	}
	if s.Document.ChunkSize < 1 {
		return fmt.Errorf("%w: chunk size must be at least 1, got %d", ErrInvalidConfiguration, s.Document.ChunkSize)
	}
	if s.Model.Timeout < 0 {
		return fmt.Errorf("%w: negative model timeout", ErrInvalidConfiguration)
	}
	if s.Model.MaxRetries < 0 {
		return fmt.Errorf("%w: negative retry count", ErrInvalidConfiguration)
	}
	if s.Model.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: negative request rate", ErrInvalidConfiguration)
	}
	return nil
}
