package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
)

// TokenHandler receives reply fragments as they stream in.
type TokenHandler func(token string)

// Conversation is the free-form chat panel's state for one session.
type Conversation interface {
	// ID returns the session identifier.
	ID() string

	// StartedAt returns when the conversation was created.
	StartedAt() time.Time

	// Append adds a message to the end of the history.
	Append(ctx context.Context, msg domain.Message) error

	// History returns a copy of the ordered history.
	History() []domain.Message

	// Ask appends prompt as a user message, sends the full history to model,
	// streams the reply through onToken, appends the completed assistant
	// message and returns its text.
	Ask(ctx context.Context, prompt, model string, onToken TokenHandler) (string, error)
}
