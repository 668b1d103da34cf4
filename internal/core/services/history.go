package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driven"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driving"
)

// Ensure HistoryService implements the interface.
var _ driving.History = (*HistoryService)(nil)

// HistoryService reads conversations from a transcript store.
type HistoryService struct {
	store driven.TranscriptStore
}

// NewHistoryService creates a new history service.
func NewHistoryService(store driven.TranscriptStore) *HistoryService {
	return &HistoryService{store: store}
}

// Sessions returns recorded sessions, most recent first.
func (s *HistoryService) Sessions(ctx context.Context, limit int) ([]domain.SessionInfo, error) {
	sessions, err := s.store.ListSessions(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// Transcript returns one session's messages.
func (s *HistoryService) Transcript(ctx context.Context, id string) (domain.SessionInfo, []domain.Message, error) {
	info, err := s.find(ctx, id)
	if err != nil {
		return domain.SessionInfo{}, nil, err
	}

	msgs, err := s.store.Messages(ctx, info.ID)
	if err != nil {
		return domain.SessionInfo{}, nil, fmt.Errorf("read session %s: %w", info.ID, err)
	}
	return info, msgs, nil
}

func (s *HistoryService) find(ctx context.Context, id string) (domain.SessionInfo, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.SessionInfo{}, fmt.Errorf("%w: session id is required", domain.ErrInvalidInput)
	}

	sessions, err := s.Sessions(ctx, 0)
	if err != nil {
		return domain.SessionInfo{}, err
	}
	if len(sessions) == 0 {
		return domain.SessionInfo{}, domain.ErrSessionNotFound
	}
	if id == driving.LatestSession {
		return sessions[0], nil
	}

	var matches []domain.SessionInfo
	for _, info := range sessions {
		if info.ID == id {
			return info, nil
		}
		if strings.HasPrefix(info.ID, id) {
			matches = append(matches, info)
		}
	}

	switch len(matches) {
	case 0:
		return domain.SessionInfo{}, domain.ErrSessionNotFound
	case 1:
		return matches[0], nil
	default:
		return domain.SessionInfo{}, fmt.Errorf("%w: %q matches %d sessions", domain.ErrInvalidInput, id, len(matches))
	}
}
