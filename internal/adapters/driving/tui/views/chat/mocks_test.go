package chat

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driving"
)

type mockConversation struct {
	mu      sync.Mutex
	AskFunc func(ctx context.Context, prompt, model string, onToken driving.TokenHandler) (string, error)
	prompts []string
	models  []string
}

func (m *mockConversation) ID() string           { return "s1" }
func (m *mockConversation) StartedAt() time.Time { return time.Time{} }

func (m *mockConversation) Append(_ context.Context, _ domain.Message) error {
	return nil
}

func (m *mockConversation) History() []domain.Message {
	return nil
}

func (m *mockConversation) Ask(ctx context.Context, prompt, model string, onToken driving.TokenHandler) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.models = append(m.models, model)
	m.mu.Unlock()
	if m.AskFunc != nil {
		return m.AskFunc(ctx, prompt, model, onToken)
	}
	return "", nil
}

func (m *mockConversation) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

type mockDocumentQA struct {
	doc        *domain.Document
	chunks     []domain.Chunk
	LoadErr    error
	AnswerFunc func(ctx context.Context, question, model string, onFragment driving.FragmentHandler) (string, error)
}

func (m *mockDocumentQA) Load(_ context.Context, name string, r io.Reader) (*domain.Document, error) {
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	m.doc = &domain.Document{ID: "d1", Name: name, Text: string(data), Pages: 1}
	m.chunks = []domain.Chunk{{Position: 0, Content: string(data)}}
	return m.doc, nil
}

func (m *mockDocumentQA) Document() *domain.Document { return m.doc }
func (m *mockDocumentQA) Chunks() []domain.Chunk     { return m.chunks }

func (m *mockDocumentQA) Answer(
	ctx context.Context,
	question, model string,
	onFragment driving.FragmentHandler,
) (string, error) {
	if m.AnswerFunc != nil {
		return m.AnswerFunc(ctx, question, model, onFragment)
	}
	return "", nil
}

type mockSession struct {
	conv *mockConversation
	docs *mockDocumentQA
}

func (m *mockSession) Conversation() driving.Conversation { return m.conv }
func (m *mockSession) Documents() driving.DocumentQA      { return m.docs }

type mockWatcher struct {
	changes chan struct{}
	err     error
	paths   []string
}

func (m *mockWatcher) Watch(_ context.Context, path string) (<-chan struct{}, error) {
	m.paths = append(m.paths, path)
	if m.err != nil {
		return nil, m.err
	}
	return m.changes, nil
}
