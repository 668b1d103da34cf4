package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// Adapters wrap them with fmt.Errorf("...: %w") so callers can match with errors.Is.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidConfiguration indicates a setting that can never work,
	// such as a chunk size below one. Raised before any external call.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrNoModelSelected indicates an operation needing a model ran without one.
	ErrNoModelSelected = fmt.Errorf("%w: no model selected", ErrInvalidConfiguration)

	// ErrExtraction indicates the uploaded file could not be turned into text.
	ErrExtraction = errors.New("text extraction failed")

	// ErrModelUnavailable indicates the model server reports no installed models.
	// It is a warning state, not a failure.
	ErrModelUnavailable = errors.New("no models available")

	// ErrServerUnreachable indicates the model server could not be contacted.
	ErrServerUnreachable = errors.New("model server unreachable")

	// ErrInference indicates a model call failed mid-conversation or mid-chunk.
	ErrInference = errors.New("inference failed")

	// ErrNoDocument indicates a document question was asked before any document was loaded.
	ErrNoDocument = errors.New("no document loaded")

	// ErrSessionNotFound indicates an unknown or already ended session.
	ErrSessionNotFound = fmt.Errorf("session %w", ErrNotFound)
)

// InferenceError reports a failed model call.
// Chunk is the zero-based chunk position for document questions, or -1 for chat turns.
type InferenceError struct {
	Chunk int
	Err   error
}

// NewInferenceError wraps err as an inference failure for the given chunk.
func NewInferenceError(chunk int, err error) *InferenceError {
	return &InferenceError{Chunk: chunk, Err: err}
}

func (e *InferenceError) Error() string {
	if e.Chunk < 0 {
		return fmt.Sprintf("inference failed: %v", e.Err)
	}
	return fmt.Sprintf("inference failed on chunk %d: %v", e.Chunk+1, e.Err)
}

// Unwrap returns the underlying model client error.
func (e *InferenceError) Unwrap() error {
	return e.Err
}

// Is reports ErrInference as a match so callers need not know the concrete type.
func (e *InferenceError) Is(target error) bool {
	return target == ErrInference
}
