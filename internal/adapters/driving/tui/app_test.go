package tui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pdfchat/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/pdfchat/internal/core/domain"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driving"
)

func newTestApp(t *testing.T, opts Options) *App {
	t.Helper()
	opts.MarkdownStyle = "notty"
	app, err := NewApp(newTestPorts(), opts)
	require.NoError(t, err)
	app.SetDimensions(100, 30)
	return app
}

func TestNewApp_StartsInPickerWithoutModel(t *testing.T) {
	app, err := NewApp(newTestPorts(), Options{})

	require.NoError(t, err)
	require.NotNil(t, app)
	assert.Equal(t, messages.ViewPicker, app.CurrentView())
	assert.False(t, app.Ready())
}

func TestNewApp_StartsInChatWithModel(t *testing.T) {
	app, err := NewApp(newTestPorts(), Options{Model: "llama3.2"})

	require.NoError(t, err)
	assert.Equal(t, messages.ViewChat, app.CurrentView())
	assert.Equal(t, "llama3.2", app.Model())
}

func TestNewApp_InvalidPorts(t *testing.T) {
	app, err := NewApp(&Ports{Session: &MockSession{}}, Options{})

	assert.ErrorIs(t, err, ErrMissingModelCatalog)
	assert.Nil(t, app)
}

func TestApp_WithContext(t *testing.T) {
	app := newTestApp(t, Options{})

	type contextKey string
	ctx := context.WithValue(context.Background(), contextKey("key"), "value")

	assert.Equal(t, app, app.WithContext(ctx))
}

func TestApp_Init(t *testing.T) {
	app := newTestApp(t, Options{DocumentPath: "/tmp/a.pdf"})

	assert.NotNil(t, app.Init())
}

func TestApp_DiscoverModels(t *testing.T) {
	app := newTestApp(t, Options{})

	msg := app.discoverModels()()

	assert.Equal(t, messages.ModelsDiscovered{Discovery: driving.Discovery{Models: []string{"llama3.2"}}}, msg)
}

func TestApp_Update_WindowSize(t *testing.T) {
	app, err := NewApp(newTestPorts(), Options{})
	require.NoError(t, err)

	_, cmd := app.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	assert.Nil(t, cmd)
	assert.True(t, app.Ready())
}

func TestApp_View_NotReady(t *testing.T) {
	app, err := NewApp(newTestPorts(), Options{})
	require.NoError(t, err)

	assert.Equal(t, "Initialising...", app.View())
}

func TestApp_ModelsDiscovered_ThenSelect(t *testing.T) {
	app := newTestApp(t, Options{})

	app.Update(messages.ModelsDiscovered{Discovery: driving.Discovery{Models: []string{"llama3.2", "mistral"}}})
	assert.Contains(t, app.View(), "mistral")

	app.Update(tea.KeyMsg{Type: tea.KeyDown})
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	app.Update(cmd())

	assert.Equal(t, messages.ViewChat, app.CurrentView())
	assert.Equal(t, "mistral", app.Model())
}

func TestApp_ModelsDiscovered_NoModels(t *testing.T) {
	app := newTestApp(t, Options{})

	app.Update(messages.ModelsDiscovered{Discovery: driving.Discovery{Unavailable: true}})

	assert.Equal(t, messages.ViewPicker, app.CurrentView())
	assert.Contains(t, app.View(), "You have not pulled any model yet.")
}

func TestApp_ModelsDiscovered_Error(t *testing.T) {
	app := newTestApp(t, Options{Model: "llama3.2"})
	err := errors.New("connection refused")

	app.Update(messages.ModelsDiscovered{Err: err})

	assert.Equal(t, err, app.Err())
	assert.Equal(t, "llama3.2", app.Model(), "an unreachable server does not drop the preference")
}

func TestApp_ModelsDiscovered_PreferredMissing(t *testing.T) {
	app := newTestApp(t, Options{Model: "gone"})

	_, cmd := app.Update(messages.ModelsDiscovered{Discovery: driving.Discovery{Models: []string{"llama3.2"}}})

	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewPicker, app.CurrentView())
	assert.Equal(t, "", app.Model())

	msg, ok := cmd().(messages.ErrorOccurred)
	require.True(t, ok)
	assert.ErrorIs(t, msg.Err, domain.ErrInvalidConfiguration)
	assert.Contains(t, msg.Err.Error(), `"gone"`)
}

func TestApp_ModelsDiscovered_PreferredInstalled(t *testing.T) {
	app := newTestApp(t, Options{Model: "llama3.2"})

	_, cmd := app.Update(messages.ModelsDiscovered{Discovery: driving.Discovery{Models: []string{"llama3.2"}}})

	assert.Nil(t, cmd)
	assert.Equal(t, messages.ViewChat, app.CurrentView())
}

func TestApp_RefreshModels(t *testing.T) {
	app := newTestApp(t, Options{})

	_, cmd := app.Update(messages.RefreshModels{})

	require.NotNil(t, cmd)
	_, ok := cmd().(messages.ModelsDiscovered)
	assert.True(t, ok)
}

func TestApp_ViewChanged(t *testing.T) {
	tests := []struct {
		name string
		view messages.ViewType
		want string
	}{
		{"picker", messages.ViewPicker, "Chat with PDF"},
		{"chat", messages.ViewChat, "Chat with PDF"},
		{"preview", messages.ViewPreview, "No PDF loaded"},
		{"help", messages.ViewHelp, "/ask <question>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t, Options{Model: "m"})

			app.Update(messages.ViewChanged{View: tt.view})

			assert.Equal(t, tt.view, app.CurrentView())
			assert.Contains(t, app.View(), tt.want)
		})
	}
}

func TestApp_Help_ReturnsToPreviousView(t *testing.T) {
	app := newTestApp(t, Options{Model: "m"})

	app.Update(tea.KeyMsg{Type: tea.KeyF1})
	assert.Equal(t, messages.ViewHelp, app.CurrentView())

	// Other keys are swallowed by help.
	app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	assert.Equal(t, messages.ViewHelp, app.CurrentView())

	app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, messages.ViewChat, app.CurrentView())

	app.Update(tea.KeyMsg{Type: tea.KeyF1})
	app.Update(tea.KeyMsg{Type: tea.KeyF1})
	assert.Equal(t, messages.ViewChat, app.CurrentView())
}

func TestApp_CtrlC_Quits(t *testing.T) {
	app := newTestApp(t, Options{})

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestApp_Quit(t *testing.T) {
	app := newTestApp(t, Options{})

	_, cmd := app.Update(messages.Quit{})

	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestApp_DocumentLoaded_RefreshesPreview(t *testing.T) {
	app := newTestApp(t, Options{Model: "m"})
	path := filepath.Join(t.TempDir(), "paper.pdf")
	require.NoError(t, os.WriteFile(path, []byte("Attention is all you need"), 0o600))

	app.Update(messages.ViewChanged{View: messages.ViewPreview})
	app.Update(app.chatView.LoadDocument(path)())

	out := app.View()
	assert.Contains(t, out, "paper.pdf")
	assert.Contains(t, out, "Attention is all you need")
}

func TestApp_DocumentLoaded_Error(t *testing.T) {
	app := newTestApp(t, Options{Model: "m"})

	app.Update(messages.DocumentLoaded{Err: domain.ErrExtraction})

	assert.ErrorIs(t, app.Err(), domain.ErrExtraction)
}

func TestApp_ErrorOccurred(t *testing.T) {
	app := newTestApp(t, Options{Model: "m"})
	err := errors.New("boom")

	app.Update(messages.ErrorOccurred{Err: err})

	assert.Equal(t, err, app.Err())
	assert.Contains(t, app.View(), "boom")
}

func TestApp_TypingReachesChat(t *testing.T) {
	app := newTestApp(t, Options{Model: "m"})

	app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("hello")})

	assert.Equal(t, "hello", app.chatView.Input().Value())
}
