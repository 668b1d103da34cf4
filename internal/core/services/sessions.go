package services

import (
	"sync"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driven"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driving"
	"github.com/custodia-labs/pdfchat/internal/logger"
)

// Ensure the session types implement the interfaces.
var (
	_ driving.Session        = (*Session)(nil)
	_ driving.SessionManager = (*SessionManager)(nil)
)

// Session is the state of one user: a conversation and a loaded document.
type Session struct {
	conversation *ConversationSession
	documents    *DocumentQAService
}

// Conversation returns the session's chat conversation.
func (s *Session) Conversation() driving.Conversation {
	return s.conversation
}

// Documents returns the session's document question-answering state.
func (s *Session) Documents() driving.DocumentQA {
	return s.documents
}

// SessionConfig holds what every new session is built from.
type SessionConfig struct {
	Model       driven.ChatModel
	Extractor   driven.TextExtractor
	Prompts     driven.PromptStore
	Transcripts driven.TranscriptStore

	// ChunkSize is the document chunk size in characters.
	ChunkSize int

	// RecordAnswers appends document answers to the conversation.
	RecordAnswers bool
}

// SessionManager creates sessions on first interaction and drops them on end.
type SessionManager struct {
	cfg SessionConfig

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessionManager creates a session manager.
func NewSessionManager(cfg SessionConfig) *SessionManager {
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = domain.DefaultChunkSize
	}
	return &SessionManager{
		cfg:      cfg,
		sessions: make(map[string]*Session),
	}
}

// Create starts a new session.
func (m *SessionManager) Create() driving.Session {
	s := m.build("")

	m.mu.Lock()
	m.sessions[s.conversation.ID()] = s
	m.mu.Unlock()

	logger.Debug("session %s started", s.conversation.ID())
	return s
}

// build assembles a session without registering it.
func (m *SessionManager) build(id string) *Session {
	convOpts := []ConversationOption{WithSessionID(id)}
	if m.cfg.Transcripts != nil {
		convOpts = append(convOpts, WithTranscriptStore(m.cfg.Transcripts))
	}
	conv := NewConversationSession(m.cfg.Model, convOpts...)

	docOpts := []DocumentQAOption{WithChunkSize(m.cfg.ChunkSize)}
	if m.cfg.Prompts != nil {
		docOpts = append(docOpts, WithPromptStore(m.cfg.Prompts))
	}
	if m.cfg.RecordAnswers {
		docOpts = append(docOpts, WithAnswerRecorder(conv))
	}

	return &Session{
		conversation: conv,
		documents:    NewDocumentQAService(m.cfg.Extractor, m.cfg.Model, docOpts...),
	}
}

// Get returns a live session or domain.ErrSessionNotFound.
func (m *SessionManager) Get(id string) (driving.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return s, nil
}

// GetOrCreate returns the session for id, creating it when unknown.
// A non-empty unknown id is reused so clients keep the id they sent.
func (m *SessionManager) GetOrCreate(id string) driving.Session {
	if id == "" {
		return m.Create()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[id]; ok {
		return s
	}
	s := m.build(id)
	m.sessions[id] = s
	logger.Debug("session %s started", id)
	return s
}

// End destroys a session.
func (m *SessionManager) End(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; ok {
		delete(m.sessions, id)
		logger.Debug("session %s ended", id)
	}
}

// Len returns the number of live sessions.
func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
