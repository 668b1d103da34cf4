package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driven"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driving"
	"github.com/custodia-labs/pdfchat/internal/logger"
	"github.com/custodia-labs/pdfchat/internal/postprocessors/chunker"
)

// Ensure DocumentQAService implements the interface.
var _ driving.DocumentQA = (*DocumentQAService)(nil)

// DocumentQAService answers questions about one loaded document by asking the
// model about each chunk independently and concatenating the replies.
type DocumentQAService struct {
	extractor driven.TextExtractor
	model     driven.ChatModel
	prompts   driven.PromptStore
	chunkSize int

	// recorder receives question/answer pairs when set.
	recorder driving.Conversation

	mu     sync.RWMutex
	doc    *domain.Document
	chunks []domain.Chunk
}

// DocumentQAOption configures a DocumentQAService.
type DocumentQAOption func(*DocumentQAService)

// WithChunkSize sets the number of characters per chunk.
func WithChunkSize(size int) DocumentQAOption {
	return func(s *DocumentQAService) {
		s.chunkSize = size
	}
}

// WithPromptStore lets users override the per-chunk system message.
func WithPromptStore(store driven.PromptStore) DocumentQAOption {
	return func(s *DocumentQAService) {
		s.prompts = store
	}
}

// WithAnswerRecorder appends each question and combined answer to conv.
func WithAnswerRecorder(conv driving.Conversation) DocumentQAOption {
	return func(s *DocumentQAService) {
		s.recorder = conv
	}
}

// NewDocumentQAService creates a document question-answering service.
func NewDocumentQAService(
	extractor driven.TextExtractor,
	model driven.ChatModel,
	opts ...DocumentQAOption,
) *DocumentQAService {
	s := &DocumentQAService{
		extractor: extractor,
		model:     model,
		chunkSize: domain.DefaultChunkSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load extracts text from r, chunks it and replaces the current document.
// The previous document is kept if anything fails.
func (s *DocumentQAService) Load(ctx context.Context, name string, r io.Reader) (*domain.Document, error) {
	processor := chunker.New(chunker.WithChunkSize(s.chunkSize))
	if processor.ChunkSize() < 1 {
		return nil, fmt.Errorf("%w: chunk size must be at least 1, got %d",
			domain.ErrInvalidConfiguration, processor.ChunkSize())
	}
	if s.extractor == nil {
		return nil, fmt.Errorf("%w: no extractor configured", domain.ErrExtraction)
	}

	extracted, err := s.extractor.Extract(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrExtraction, name, err)
	}

	doc := &domain.Document{
		ID:       uuid.NewString(),
		Name:     name,
		Text:     extracted.Text,
		Pages:    extracted.Pages,
		LoadedAt: time.Now(),
	}

	chunks, err := processor.Process(doc)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		logger.Warn("document %s has no extractable text", name)
	}
	logger.Info("loaded %s: %d pages, %d characters, %d chunks",
		name, doc.Pages, len(doc.Text), len(chunks))

	s.mu.Lock()
	s.doc = doc
	s.chunks = chunks
	s.mu.Unlock()

	return doc, nil
}

// Document returns the loaded document, or nil.
func (s *DocumentQAService) Document() *domain.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc
}

// Chunks returns a copy of the loaded chunk sequence.
func (s *DocumentQAService) Chunks() []domain.Chunk {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Chunk, len(s.chunks))
	copy(out, s.chunks)
	return out
}

// Answer asks question against every chunk of the loaded document.
func (s *DocumentQAService) Answer(
	ctx context.Context,
	question, model string,
	onFragment driving.FragmentHandler,
) (string, error) {
	if model == "" {
		return "", domain.ErrNoModelSelected
	}
	if s.Document() == nil {
		return "", domain.ErrNoDocument
	}

	answer, err := s.AnswerChunks(ctx, question, s.Chunks(), model, onFragment)
	if err != nil {
		return "", err
	}

	if s.recorder != nil {
		s.recordAnswer(ctx, question, answer)
	}
	return answer, nil
}

// AnswerChunks sends one stateless two-message request per chunk, strictly in
// order, and concatenates the replies. The first failing chunk aborts the rest.
func (s *DocumentQAService) AnswerChunks(
	ctx context.Context,
	question string,
	chunks []domain.Chunk,
	model string,
	onFragment driving.FragmentHandler,
) (string, error) {
	if model == "" {
		return "", domain.ErrNoModelSelected
	}

	template := s.contextPrompt()
	logger.Debug("document question: %d model requests to %s", len(chunks), model)

	var answer strings.Builder
	for i, chunk := range chunks {
		req := driven.ChatRequest{
			Model: model,
			Messages: []domain.Message{
				domain.NewMessage(domain.RoleSystem, renderContext(template, chunk.Content)),
				domain.NewMessage(domain.RoleUser, question),
			},
		}

		reply, err := collectReply(ctx, s.model, req, func(token string) {
			if onFragment != nil {
				onFragment(driving.Fragment{ChunkIndex: i, Text: token})
			}
		})
		if err != nil {
			logger.Debug("chunk %d/%d failed: %v", i+1, len(chunks), err)
			return "", domain.NewInferenceError(i, err)
		}
		answer.WriteString(reply)
	}

	return answer.String(), nil
}

func (s *DocumentQAService) recordAnswer(ctx context.Context, question, answer string) {
	for _, msg := range []domain.Message{
		domain.NewMessage(domain.RoleUser, question),
		domain.NewMessage(domain.RoleAssistant, answer),
	} {
		if err := s.recorder.Append(ctx, msg); err != nil {
			logger.Warn("record document answer: %v", err)
			return
		}
	}
}

// contextPrompt loads the per-chunk template, falling back to the default.
func (s *DocumentQAService) contextPrompt() string {
	if s.prompts == nil {
		return domain.DefaultDocumentContextPrompt
	}
	prompt, err := s.prompts.Load(driven.PromptDocumentContext)
	if err != nil || strings.TrimSpace(prompt) == "" {
		return domain.DefaultDocumentContextPrompt
	}
	return prompt
}

// renderContext places chunk text at the first %s in template.
// Templates without a placeholder get the chunk appended.
func renderContext(template, chunk string) string {
	if strings.Contains(template, "%s") {
		return strings.Replace(template, "%s", chunk, 1)
	}
	return template + chunk
}
