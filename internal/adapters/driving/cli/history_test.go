package cli

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
)

func TestHistoryCmd_Disabled(t *testing.T) {
	defer SetServices(nil)
	s, _, _ := testServices()
	SetServices(s)

	_, _, err := execute("history", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transcripts are disabled")
}

func TestHistoryList(t *testing.T) {
	defer SetServices(nil)
	s, _, _ := testServices()
	history := &MockHistory{List: []domain.SessionInfo{
		{ID: "0f8a2c1e-aaaa-bbbb", Model: "llama3.2", StartedAt: time.Now(), MessageCount: 4},
		{ID: "short", MessageCount: 0},
	}}
	s.History = history
	SetServices(s)

	stdout, _, err := execute("history", "list", "--limit", "5")
	require.NoError(t, err)

	assert.Equal(t, 5, history.Limit)
	assert.Contains(t, stdout, "ID")
	assert.Contains(t, stdout, "0f8a2c1e ")
	assert.NotContains(t, stdout, "0f8a2c1e-aaaa")
	assert.Contains(t, stdout, "llama3.2")
	assert.Contains(t, stdout, "short")
}

func TestHistoryList_Empty(t *testing.T) {
	defer SetServices(nil)
	s, _, _ := testServices()
	s.History = &MockHistory{}
	SetServices(s)

	stdout, _, err := execute("history", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No recorded sessions.")
}

func TestHistoryShow_DefaultsToLatest(t *testing.T) {
	defer SetServices(nil)
	s, _, _ := testServices()
	history := &MockHistory{
		Info: domain.SessionInfo{ID: "abc123", Model: "llama3.2", StartedAt: time.Now()},
		Messages: []domain.Message{
			{Role: domain.RoleUser, Content: "hi"},
			{Role: domain.RoleAssistant, Content: "hello there"},
		},
	}
	s.History = history
	SetServices(s)

	stdout, _, err := execute("history", "show")
	require.NoError(t, err)

	assert.Equal(t, "latest", history.Shown)
	assert.Contains(t, stdout, "Session abc123")
	assert.Contains(t, stdout, "😎 user\nhi")
	assert.Contains(t, stdout, "🤖 assistant\nhello there")
}

func TestHistoryShow_ByID(t *testing.T) {
	defer SetServices(nil)
	s, _, _ := testServices()
	history := &MockHistory{Err: domain.ErrSessionNotFound}
	s.History = history
	SetServices(s)

	_, _, err := execute("history", "show", "abc")
	assert.Equal(t, "abc", history.Shown)
	assert.True(t, errors.Is(err, domain.ErrSessionNotFound))
}
