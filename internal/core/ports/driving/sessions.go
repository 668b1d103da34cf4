package driving

// Session bundles the per-user state: the chat conversation and the loaded document.
type Session interface {
	Conversation() Conversation
	Documents() DocumentQA
}

// SessionManager owns session lifecycles.
type SessionManager interface {
	// Create starts a new session.
	Create() Session

	// Get returns a live session or domain.ErrSessionNotFound.
	Get(id string) (Session, error)

	// GetOrCreate returns the session for id, creating one when id is empty or unknown.
	GetOrCreate(id string) Session

	// End destroys a session. Ending an unknown session is not an error.
	End(id string)

	// Len returns the number of live sessions.
	Len() int
}
