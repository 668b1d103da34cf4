package cli

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driving"
)

// MockModelCatalog implements driving.ModelCatalog.
type MockModelCatalog struct {
	Discovery   driving.Discovery
	DiscoverErr error
	ResolveErr  error
	Resolved    string
}

func (m *MockModelCatalog) Discover(_ context.Context) (driving.Discovery, error) {
	return m.Discovery, m.DiscoverErr
}

func (m *MockModelCatalog) Resolve(_ context.Context, preferred string) (string, error) {
	if m.ResolveErr != nil {
		return "", m.ResolveErr
	}
	m.Resolved = preferred
	if preferred == "" {
		return "llama3.2", nil
	}
	return preferred, nil
}

// MockConversation implements driving.Conversation.
type MockConversation struct {
	Tokens []string
	Err    error
	Asked  []string
	Model  string
}

func (m *MockConversation) ID() string           { return "session-1" }
func (m *MockConversation) StartedAt() time.Time { return time.Time{} }

func (m *MockConversation) Append(_ context.Context, _ domain.Message) error { return nil }

func (m *MockConversation) History() []domain.Message { return nil }

func (m *MockConversation) Ask(_ context.Context, prompt, model string, onToken driving.TokenHandler) (string, error) {
	m.Asked = append(m.Asked, prompt)
	m.Model = model
	var reply string
	for _, t := range m.Tokens {
		onToken(t)
		reply += t
	}
	return reply, m.Err
}

// MockDocumentQA implements driving.DocumentQA.
type MockDocumentQA struct {
	Doc       *domain.Document
	Pieces    []domain.Chunk
	LoadErr   error
	Fragments []string
	AnswerErr error
	Loaded    []byte
	Question  string
}

func (m *MockDocumentQA) Load(_ context.Context, name string, r io.Reader) (*domain.Document, error) {
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	m.Loaded = buf.Bytes()
	m.Doc = &domain.Document{ID: "doc-1", Name: name, Text: "Quarterly revenue grew.", Pages: 2}
	m.Pieces = []domain.Chunk{{Position: 0, Content: m.Doc.Text}}
	return m.Doc, nil
}

func (m *MockDocumentQA) Document() *domain.Document { return m.Doc }

func (m *MockDocumentQA) Chunks() []domain.Chunk { return m.Pieces }

func (m *MockDocumentQA) Answer(_ context.Context, question, _ string, onFragment driving.FragmentHandler) (string, error) {
	m.Question = question
	var answer string
	for i, f := range m.Fragments {
		onFragment(driving.Fragment{ChunkIndex: i, Text: f})
		answer += f
	}
	return answer, m.AnswerErr
}

// MockSession implements driving.Session.
type MockSession struct {
	Conv *MockConversation
	Docs *MockDocumentQA
}

func (m *MockSession) Conversation() driving.Conversation { return m.Conv }
func (m *MockSession) Documents() driving.DocumentQA      { return m.Docs }

// MockSessionManager implements driving.SessionManager with a single session.
type MockSessionManager struct {
	Session *MockSession
	Created int
	Ended   []string
}

func NewMockSessionManager() *MockSessionManager {
	return &MockSessionManager{
		Session: &MockSession{Conv: &MockConversation{}, Docs: &MockDocumentQA{}},
	}
}

func (m *MockSessionManager) Create() driving.Session {
	m.Created++
	return m.Session
}

func (m *MockSessionManager) Get(_ string) (driving.Session, error) { return m.Session, nil }

func (m *MockSessionManager) GetOrCreate(_ string) driving.Session { return m.Session }

func (m *MockSessionManager) End(id string) { m.Ended = append(m.Ended, id) }

func (m *MockSessionManager) Len() int { return 1 }

// MockHistory implements driving.History.
type MockHistory struct {
	List     []domain.SessionInfo
	Info     domain.SessionInfo
	Messages []domain.Message
	Err      error
	Limit    int
	Shown    string
}

func (m *MockHistory) Sessions(_ context.Context, limit int) ([]domain.SessionInfo, error) {
	m.Limit = limit
	return m.List, m.Err
}

func (m *MockHistory) Transcript(_ context.Context, id string) (domain.SessionInfo, []domain.Message, error) {
	m.Shown = id
	return m.Info, m.Messages, m.Err
}

// MockSettingsService implements driving.SettingsService.
type MockSettingsService struct {
	Values   []driving.SettingEntry
	SetErr   error
	Saved    map[string]string
	Unsetted []string
}

func (m *MockSettingsService) Get() (domain.Settings, error) { return domain.DefaultSettings(), nil }

func (m *MockSettingsService) Set(key, value string) error {
	if m.SetErr != nil {
		return m.SetErr
	}
	if m.Saved == nil {
		m.Saved = make(map[string]string)
	}
	m.Saved[key] = value
	return nil
}

func (m *MockSettingsService) Unset(key string) error {
	m.Unsetted = append(m.Unsetted, key)
	return nil
}

func (m *MockSettingsService) Entries() ([]driving.SettingEntry, error) { return m.Values, nil }

// testServices wires mocks and returns them for assertions.
func testServices() (*Services, *MockModelCatalog, *MockSessionManager) {
	models := &MockModelCatalog{Discovery: driving.Discovery{Models: []string{"llama3.2", "mistral"}}}
	sessions := NewMockSessionManager()
	return &Services{
		Settings: domain.DefaultSettings(),
		Models:   models,
		Sessions: sessions,
	}, models, sessions
}

// execute runs the root command with args and returns stdout and stderr.
func execute(args ...string) (string, string, error) {
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	if args == nil {
		args = []string{}
	}
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		resetFlags()
	}()

	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func resetFlags() {
	verbose = false
	overrides = Overrides{}
	askPDF = ""
	askPreview = false
	modelsJSON = false
	historyLimit = 20
	serveAddr = ""
	mcpPort = 0
	chatPDF = ""
	chatWatch = false
	chatStyle = ""
}
