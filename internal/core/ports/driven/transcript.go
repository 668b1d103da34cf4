package driven

import (
	"context"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
)

// TranscriptStore records conversation sessions for later review.
// Recording is best-effort: callers log failures rather than abort a turn.
type TranscriptStore interface {
	// CreateSession registers a new session.
	CreateSession(ctx context.Context, info domain.SessionInfo) error

	// AppendMessage records one message at the end of a session.
	AppendMessage(ctx context.Context, sessionID string, msg domain.Message) error

	// ListSessions returns sessions, most recent first.
	ListSessions(ctx context.Context, limit int) ([]domain.SessionInfo, error)

	// Messages returns a session's messages in order.
	// Returns domain.ErrSessionNotFound for unknown sessions.
	Messages(ctx context.Context, sessionID string) ([]domain.Message, error)

	// Close releases resources.
	Close() error
}
