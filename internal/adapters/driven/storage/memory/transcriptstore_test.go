package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
)

func TestTranscriptStore_AppendAndRead(t *testing.T) {
	store := NewTranscriptStore()
	ctx := context.Background()

	require.NoError(t, store.CreateSession(ctx, domain.SessionInfo{ID: "s1", Model: "llama3.2"}))
	require.NoError(t, store.AppendMessage(ctx, "s1", domain.NewMessage(domain.RoleUser, "hi")))
	require.NoError(t, store.AppendMessage(ctx, "s1", domain.NewMessage(domain.RoleAssistant, "hello")))

	msgs, err := store.Messages(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, domain.RoleUser, msgs[0].Role)
	assert.Equal(t, "hello", msgs[1].Content)
}

func TestTranscriptStore_UnknownSession(t *testing.T) {
	store := NewTranscriptStore()
	ctx := context.Background()

	err := store.AppendMessage(ctx, "missing", domain.NewMessage(domain.RoleUser, "hi"))
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	_, err = store.Messages(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTranscriptStore_CreateSessionIsIdempotent(t *testing.T) {
	store := NewTranscriptStore()
	ctx := context.Background()

	require.NoError(t, store.CreateSession(ctx, domain.SessionInfo{ID: "s1", Model: "a"}))
	require.NoError(t, store.CreateSession(ctx, domain.SessionInfo{ID: "s1", Model: "b"}))

	sessions, err := store.ListSessions(ctx, 0)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "a", sessions[0].Model)
}

func TestTranscriptStore_ListSessions(t *testing.T) {
	store := NewTranscriptStore()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.CreateSession(ctx, domain.SessionInfo{ID: "old", StartedAt: now.Add(-time.Hour)}))
	require.NoError(t, store.CreateSession(ctx, domain.SessionInfo{ID: "new", StartedAt: now}))
	require.NoError(t, store.AppendMessage(ctx, "new", domain.NewMessage(domain.RoleUser, "hi")))

	sessions, err := store.ListSessions(ctx, 0)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "new", sessions[0].ID)
	assert.Equal(t, 1, sessions[0].MessageCount)
	assert.Equal(t, 0, sessions[1].MessageCount)

	limited, err := store.ListSessions(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
