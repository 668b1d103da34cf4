package driving

import (
	"context"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
)

// LatestSession selects the most recent recorded session.
const LatestSession = "latest"

// History reads recorded conversations.
type History interface {
	// Sessions returns recorded sessions, most recent first.
	Sessions(ctx context.Context, limit int) ([]domain.SessionInfo, error)

	// Transcript returns one session's messages. id may be LatestSession or
	// an unambiguous id prefix.
	Transcript(ctx context.Context, id string) (domain.SessionInfo, []domain.Message, error)
}
