package domain

import (
	"fmt"
	"time"
)

// Role identifies the author of a chat message.
type Role string

// Chat roles understood by model servers.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// IsValid returns true if the role is recognised.
func (r Role) IsValid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (r Role) String() string {
	return string(r)
}

// Message is a single entry of a conversation. Messages are never mutated
// once appended to a history.
type Message struct {
	// Role is who produced the message.
	Role Role

	// Content is the message text.
	Content string

	// CreatedAt is when the message was created.
	CreatedAt time.Time
}

// NewMessage creates a message stamped with the current time.
func NewMessage(role Role, content string) Message {
	return Message{Role: role, Content: content, CreatedAt: time.Now()}
}

// Validate checks the message can be sent to a model.
func (m Message) Validate() error {
	if !m.Role.IsValid() {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidInput, m.Role)
	}
	return nil
}
