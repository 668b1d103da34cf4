package mcp

import (
	"context"
	"io"
	"time"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driving"
)

// mockModelCatalog is a mock implementation of driving.ModelCatalog.
type mockModelCatalog struct {
	models []string
	err    error

	// resolved records the preferences passed to Resolve.
	resolved []string
}

func (m *mockModelCatalog) Discover(_ context.Context) (driving.Discovery, error) {
	if m.err != nil {
		return driving.Discovery{}, m.err
	}
	return driving.Discovery{Models: m.models, Unavailable: len(m.models) == 0}, nil
}

func (m *mockModelCatalog) Resolve(_ context.Context, preferred string) (string, error) {
	m.resolved = append(m.resolved, preferred)
	if m.err != nil {
		return "", m.err
	}
	if len(m.models) == 0 {
		return "", domain.ErrModelUnavailable
	}
	if preferred != "" {
		return preferred, nil
	}
	return m.models[0], nil
}

// mockConversation is a mock implementation of driving.Conversation.
type mockConversation struct {
	history []domain.Message
	reply   string
	err     error
}

func (m *mockConversation) ID() string { return "session-1" }

func (m *mockConversation) StartedAt() time.Time { return time.Time{} }

func (m *mockConversation) Append(_ context.Context, msg domain.Message) error {
	m.history = append(m.history, msg)
	return nil
}

func (m *mockConversation) History() []domain.Message { return m.history }

func (m *mockConversation) Ask(
	_ context.Context,
	prompt, _ string,
	_ driving.TokenHandler,
) (string, error) {
	m.history = append(m.history, domain.NewMessage(domain.RoleUser, prompt))
	if m.err != nil {
		return "", m.err
	}
	m.history = append(m.history, domain.NewMessage(domain.RoleAssistant, m.reply))
	return m.reply, nil
}

// mockDocumentQA is a mock implementation of driving.DocumentQA.
type mockDocumentQA struct {
	doc     *domain.Document
	chunks  []domain.Chunk
	answer  string
	loadErr error
	askErr  error

	loadedText string
	questions  []string
}

func (m *mockDocumentQA) Load(_ context.Context, name string, r io.Reader) (*domain.Document, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	m.loadedText = string(data)
	m.doc = &domain.Document{ID: "doc-1", Name: name, Text: string(data), Pages: 1}
	m.chunks = []domain.Chunk{{Position: 0, Content: string(data)}}
	return m.doc, nil
}

func (m *mockDocumentQA) Document() *domain.Document { return m.doc }

func (m *mockDocumentQA) Chunks() []domain.Chunk { return m.chunks }

func (m *mockDocumentQA) Answer(
	_ context.Context,
	question, _ string,
	_ driving.FragmentHandler,
) (string, error) {
	m.questions = append(m.questions, question)
	return m.answer, m.askErr
}

// mockSession is a mock implementation of driving.Session.
type mockSession struct {
	conv *mockConversation
	docs *mockDocumentQA
}

func (m *mockSession) Conversation() driving.Conversation { return m.conv }

func (m *mockSession) Documents() driving.DocumentQA { return m.docs }

// mockSessionManager hands out a single prepared session.
type mockSessionManager struct {
	session *mockSession
	ended   []string
}

func newMockSessionManager() *mockSessionManager {
	return &mockSessionManager{session: &mockSession{
		conv: &mockConversation{},
		docs: &mockDocumentQA{},
	}}
}

func (m *mockSessionManager) Create() driving.Session { return m.session }

func (m *mockSessionManager) Get(string) (driving.Session, error) { return m.session, nil }

func (m *mockSessionManager) GetOrCreate(string) driving.Session { return m.session }

func (m *mockSessionManager) End(id string) { m.ended = append(m.ended, id) }

func (m *mockSessionManager) Len() int { return 1 }

// mockHistory is a mock implementation of driving.History.
type mockHistory struct {
	msgs []domain.Message
	err  error
}

func (m *mockHistory) Sessions(context.Context, int) ([]domain.SessionInfo, error) {
	return nil, m.err
}

func (m *mockHistory) Transcript(_ context.Context, id string) (domain.SessionInfo, []domain.Message, error) {
	if m.err != nil {
		return domain.SessionInfo{}, nil, m.err
	}
	return domain.SessionInfo{ID: id}, m.msgs, nil
}
