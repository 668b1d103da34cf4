package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driven"
)

// sliceStream is a TokenStream over a fixed list of tokens.
type sliceStream struct {
	tokens []string
	err    error
	closed bool
}

func (s *sliceStream) Next() (string, error) {
	if len(s.tokens) == 0 {
		if s.err != nil {
			return "", s.err
		}
		return "", io.EOF
	}
	tok := s.tokens[0]
	s.tokens = s.tokens[1:]
	return tok, nil
}

func (s *sliceStream) Close() error {
	s.closed = true
	return nil
}

// mockChatModel is a test double for driven.ChatModel.
// ChatStreamFunc receives the zero-based call number.
type mockChatModel struct {
	mu             sync.Mutex
	calls          int
	requests       []driven.ChatRequest
	ChatStreamFunc func(call int, req driven.ChatRequest) (driven.TokenStream, error)
	ListModelsFunc func(ctx context.Context) ([]string, error)
}

func (m *mockChatModel) ChatStream(_ context.Context, req driven.ChatRequest) (driven.TokenStream, error) {
	m.mu.Lock()
	call := m.calls
	m.calls++
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.ChatStreamFunc != nil {
		return m.ChatStreamFunc(call, req)
	}
	return &sliceStream{tokens: []string{"ok"}}, nil
}

func (m *mockChatModel) ListModels(ctx context.Context) ([]string, error) {
	if m.ListModelsFunc != nil {
		return m.ListModelsFunc(ctx)
	}
	return nil, nil
}

func (m *mockChatModel) Ping(context.Context) error { return nil }

func (m *mockChatModel) Close() error { return nil }

func (m *mockChatModel) Requests() []driven.ChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]driven.ChatRequest(nil), m.requests...)
}

// replyWith returns a ChatStreamFunc that streams reply split into words.
func replyWith(reply string) func(int, driven.ChatRequest) (driven.TokenStream, error) {
	return func(int, driven.ChatRequest) (driven.TokenStream, error) {
		return &sliceStream{tokens: splitKeep(reply)}, nil
	}
}

// splitKeep splits s after each space so joining the parts reproduces s.
func splitKeep(s string) []string {
	return strings.SplitAfter(s, " ")
}

// mockExtractor is a test double for driven.TextExtractor.
type mockExtractor struct {
	text  string
	pages int
	err   error
}

func (m *mockExtractor) Extract(_ context.Context, r io.Reader) (driven.ExtractedText, error) {
	if m.err != nil {
		return driven.ExtractedText{}, m.err
	}
	if m.text != "" {
		return driven.ExtractedText{Text: m.text, Pages: m.pages}, nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return driven.ExtractedText{}, err
	}
	return driven.ExtractedText{Text: string(data), Pages: 1}, nil
}

// mockPromptStore is a test double for driven.PromptStore.
type mockPromptStore struct {
	prompts map[string]string
}

func (m *mockPromptStore) Load(name string) (string, error) {
	if p, ok := m.prompts[name]; ok {
		return p, nil
	}
	return "", domain.ErrNotFound
}

var errConnectionRefused = errors.New("dial tcp 127.0.0.1:11434: connection refused")
