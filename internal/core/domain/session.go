package domain

import "time"

// SessionInfo summarises a recorded conversation session.
type SessionInfo struct {
	ID           string
	Model        string
	StartedAt    time.Time
	MessageCount int
}
