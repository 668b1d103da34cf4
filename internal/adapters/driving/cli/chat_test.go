package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChatCmd_Use(t *testing.T) {
	assert.Equal(t, "chat", chatCmd.Use)
	assert.Equal(t, "Open the interactive chat", chatCmd.Short)
}

func TestChatCmd_Flags(t *testing.T) {
	tests := []struct {
		name      string
		shorthand string
	}{
		{"pdf", "f"},
		{"watch", "w"},
		{"style", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag := chatCmd.Flags().Lookup(tt.name)
			if assert.NotNil(t, flag) {
				assert.Equal(t, tt.shorthand, flag.Shorthand)
			}
			assert.NotNil(t, rootCmd.Flags().Lookup(tt.name), "root command opens the chat too")
		})
	}
}

func TestChatCmd_NoServices(t *testing.T) {
	SetServices(nil)

	_, _, err := execute("chat")
	assert.EqualError(t, err, "services not configured")
}

func TestRootCmd_DefaultsToChat(t *testing.T) {
	SetServices(nil)

	_, _, err := execute()
	assert.EqualError(t, err, "services not configured")
}
