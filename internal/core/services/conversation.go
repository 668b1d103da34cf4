package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driven"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driving"
	"github.com/custodia-labs/pdfchat/internal/logger"
)

// Ensure ConversationSession implements the interface.
var _ driving.Conversation = (*ConversationSession)(nil)

// ConversationSession holds the append-only chat history of one session.
// Turns are serialised: a second Ask waits for the first to finish.
type ConversationSession struct {
	id        string
	startedAt time.Time

	model       driven.ChatModel
	transcripts driven.TranscriptStore

	// turn serialises Ask calls; mu guards history.
	turn     sync.Mutex
	mu       sync.RWMutex
	history  []domain.Message
	recorded bool
}

// ConversationOption configures a ConversationSession.
type ConversationOption func(*ConversationSession)

// WithSessionID sets the session identifier instead of generating one.
func WithSessionID(id string) ConversationOption {
	return func(c *ConversationSession) {
		if id != "" {
			c.id = id
		}
	}
}

// WithTranscriptStore records every appended message to store.
func WithTranscriptStore(store driven.TranscriptStore) ConversationOption {
	return func(c *ConversationSession) {
		c.transcripts = store
	}
}

// NewConversationSession creates an empty conversation.
func NewConversationSession(model driven.ChatModel, opts ...ConversationOption) *ConversationSession {
	c := &ConversationSession{
		id:        uuid.NewString(),
		startedAt: time.Now(),
		model:     model,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ID returns the session identifier.
func (c *ConversationSession) ID() string {
	return c.id
}

// StartedAt returns when the conversation was created.
func (c *ConversationSession) StartedAt() time.Time {
	return c.startedAt
}

// Append adds a message to the end of the history.
func (c *ConversationSession) Append(ctx context.Context, msg domain.Message) error {
	return c.append(ctx, msg, "")
}

func (c *ConversationSession) append(ctx context.Context, msg domain.Message, model string) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	c.mu.Lock()
	c.history = append(c.history, msg)
	first := !c.recorded
	c.recorded = true
	count := len(c.history)
	c.mu.Unlock()

	c.record(ctx, msg, model, first, count)
	return nil
}

// record mirrors a message into the transcript store. Failures are logged only.
func (c *ConversationSession) record(ctx context.Context, msg domain.Message, model string, first bool, count int) {
	if c.transcripts == nil {
		return
	}
	if first {
		info := domain.SessionInfo{ID: c.id, Model: model, StartedAt: c.startedAt}
		if err := c.transcripts.CreateSession(ctx, info); err != nil {
			logger.Warn("transcript: create session %s: %v", c.id, err)
		}
	}
	if err := c.transcripts.AppendMessage(ctx, c.id, msg); err != nil {
		logger.Warn("transcript: append message %d to %s: %v", count, c.id, err)
	}
}

// History returns a copy of the ordered history.
func (c *ConversationSession) History() []domain.Message {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.Message, len(c.history))
	copy(out, c.history)
	return out
}

// Ask appends prompt as a user message, sends the whole history, streams the
// reply through onToken and appends the completed assistant message.
// On failure the user message stays in the history.
func (c *ConversationSession) Ask(
	ctx context.Context,
	prompt, model string,
	onToken driving.TokenHandler,
) (string, error) {
	if model == "" {
		return "", domain.ErrNoModelSelected
	}

	c.turn.Lock()
	defer c.turn.Unlock()

	if err := c.append(ctx, domain.NewMessage(domain.RoleUser, prompt), model); err != nil {
		return "", fmt.Errorf("append prompt: %w", err)
	}

	messages := c.History()
	logger.Debug("chat %s: sending %d messages to %s", c.id, len(messages), model)

	reply, err := collectReply(ctx, c.model, driven.ChatRequest{
		Model:    model,
		Messages: messages,
	}, onToken)
	if err != nil {
		return "", domain.NewInferenceError(-1, err)
	}

	if err := c.append(ctx, domain.NewMessage(domain.RoleAssistant, reply), model); err != nil {
		return "", fmt.Errorf("append reply: %w", err)
	}

	return reply, nil
}
