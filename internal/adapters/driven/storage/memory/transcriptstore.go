// Package memory provides in-memory implementations of driven storage ports.
// They back tests and runs with transcript persistence disabled.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driven"
)

// Ensure TranscriptStore implements the interface.
var _ driven.TranscriptStore = (*TranscriptStore)(nil)

// TranscriptStore is an in-memory implementation of driven.TranscriptStore.
type TranscriptStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.SessionInfo
	messages map[string][]domain.Message
}

// NewTranscriptStore creates a new in-memory transcript store.
func NewTranscriptStore() *TranscriptStore {
	return &TranscriptStore{
		sessions: make(map[string]domain.SessionInfo),
		messages: make(map[string][]domain.Message),
	}
}

// CreateSession registers a new session. Re-registering keeps the original.
func (s *TranscriptStore) CreateSession(_ context.Context, info domain.SessionInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[info.ID]; !ok {
		s.sessions[info.ID] = info
	}
	return nil
}

// AppendMessage records one message at the end of a session.
func (s *TranscriptStore) AppendMessage(_ context.Context, sessionID string, msg domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return domain.ErrSessionNotFound
	}
	s.messages[sessionID] = append(s.messages[sessionID], msg)
	return nil
}

// ListSessions returns sessions, most recent first.
func (s *TranscriptStore) ListSessions(_ context.Context, limit int) ([]domain.SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.SessionInfo, 0, len(s.sessions))
	for id, info := range s.sessions {
		info.MessageCount = len(s.messages[id])
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Messages returns a session's messages in order.
func (s *TranscriptStore) Messages(_ context.Context, sessionID string) ([]domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return nil, domain.ErrSessionNotFound
	}
	msgs := s.messages[sessionID]
	out := make([]domain.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

// Close releases resources.
func (s *TranscriptStore) Close() error {
	return nil
}
