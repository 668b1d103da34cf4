package chat

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pdfchat/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/pdfchat/internal/adapters/driving/tui/components/transcript"
	"github.com/custodia-labs/pdfchat/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/pdfchat/internal/core/domain"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driving"
)

func newTestView(t *testing.T) (*View, *mockSession) {
	t.Helper()
	session := &mockSession{conv: &mockConversation{}, docs: &mockDocumentQA{}}
	v := NewView(nil, nil, session, nil, "notty")
	v.SetDimensions(120, 40)
	return v, session
}

func send(v *View, text string) tea.Cmd {
	v.Input().SetValue(text)
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return cmd
}

// drain feeds the streamed reply back into the view until it completes.
func drain(v *View) {
	ch := v.stream
	for msg := range ch {
		v.Update(msg)
	}
}

func entryContents(v *View) []string {
	var out []string
	for _, e := range v.Transcript().Entries() {
		if e.Notice != nil {
			out = append(out, e.Notice.Text)
			continue
		}
		out = append(out, e.Content)
	}
	return out
}

func lastEntry(v *View) transcript.Entry {
	entries := v.Transcript().Entries()
	return entries[len(entries)-1]
}

func writePDF(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "report.pdf")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNewView(t *testing.T) {
	v, _ := newTestView(t)

	assert.Equal(t, "", v.Model())
	assert.False(t, v.Busy())
	assert.Equal(t, DefaultPreviewChars, v.previewChars)
	assert.NotNil(t, v.Init())
}

func TestView_View_NotReady(t *testing.T) {
	v := NewView(nil, nil, &mockSession{conv: &mockConversation{}, docs: &mockDocumentQA{}}, nil, "notty")

	assert.Equal(t, "Initialising...", v.View())
}

func TestView_View_Ready(t *testing.T) {
	v, _ := newTestView(t)
	v.SetModel("llama3.2")

	out := v.View()
	assert.Contains(t, out, "Chat with PDF")
	assert.Contains(t, out, "llama3.2")
}

func TestView_WithPreviewChars(t *testing.T) {
	v, _ := newTestView(t)

	v.WithPreviewChars(0)
	assert.Equal(t, DefaultPreviewChars, v.previewChars)

	v.WithPreviewChars(10)
	assert.Equal(t, 10, v.previewChars)
}

func TestView_Chat_RequiresModel(t *testing.T) {
	v, session := newTestView(t)

	cmd := send(v, "hello")

	assert.Nil(t, cmd)
	assert.False(t, v.Busy())
	assert.Equal(t, 0, session.conv.calls())
	assert.Contains(t, entryContents(v), "No model selected.")
	assert.Equal(t, status.StateError, v.StatusBar().State())
}

func TestView_Chat_EmptyPrompt(t *testing.T) {
	v, _ := newTestView(t)
	v.SetModel("m")

	cmd := send(v, "   ")

	assert.Nil(t, cmd)
	assert.Empty(t, v.Transcript().Entries())
}

func TestView_Chat_Streams(t *testing.T) {
	v, session := newTestView(t)
	v.SetModel("llama3.2")
	session.conv.AskFunc = func(_ context.Context, _, _ string, onToken driving.TokenHandler) (string, error) {
		onToken("Hello")
		onToken(" there")
		return "Hello there", nil
	}

	cmd := send(v, "hi")

	require.NotNil(t, cmd)
	assert.True(t, v.Busy())
	assert.Equal(t, "", v.Input().Value())
	assert.Equal(t, status.StateWorking, v.StatusBar().State())

	drain(v)

	assert.False(t, v.Busy())
	assert.Equal(t, []string{"hi"}, session.conv.prompts)
	assert.Equal(t, []string{"llama3.2"}, session.conv.models)
	assert.Equal(t, []string{"hi", "Hello there"}, entryContents(v))
	assert.Equal(t, domain.RoleAssistant, lastEntry(v).Role)
	assert.Equal(t, status.StateReady, v.StatusBar().State())
}

func TestView_Chat_Error(t *testing.T) {
	v, session := newTestView(t)
	v.SetModel("m")
	session.conv.AskFunc = func(_ context.Context, _, _ string, _ driving.TokenHandler) (string, error) {
		return "", domain.NewInferenceError(-1, errors.New("model crashed"))
	}

	send(v, "hi")
	drain(v)

	assert.False(t, v.Busy())
	require.NotNil(t, lastEntry(v).Notice)
	assert.Contains(t, lastEntry(v).Notice.Text, "model crashed")
	assert.Equal(t, status.StateError, v.StatusBar().State())
}

func TestView_Chat_Cancel(t *testing.T) {
	v, session := newTestView(t)
	v.SetModel("m")
	started := make(chan struct{})
	session.conv.AskFunc = func(ctx context.Context, _, _ string, onToken driving.TokenHandler) (string, error) {
		onToken("partial")
		close(started)
		<-ctx.Done()
		return "", ctx.Err()
	}

	send(v, "hi")
	<-started

	// A second prompt is ignored while busy.
	assert.Nil(t, send(v, "again"))
	assert.Equal(t, 1, session.conv.calls())

	v.Update(tea.KeyMsg{Type: tea.KeyEsc})
	drain(v)

	assert.False(t, v.Busy())
	assert.Contains(t, entryContents(v), "Reply cancelled.")
	assert.Contains(t, entryContents(v), "partial")
}

func TestView_Esc_WhenIdle(t *testing.T) {
	v, _ := newTestView(t)

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEsc})

	assert.Nil(t, cmd)
	assert.False(t, v.Busy())
}

func TestView_Ask_RequiresDocument(t *testing.T) {
	v, _ := newTestView(t)
	v.SetModel("m")

	cmd := send(v, "/ask what is this?")

	assert.Nil(t, cmd)
	assert.Contains(t, entryContents(v), "No document loaded.")
	assert.Equal(t, status.StateWarning, v.StatusBar().State())
}

func TestView_Ask_RequiresModel(t *testing.T) {
	v, session := newTestView(t)
	session.docs.doc = &domain.Document{Name: "a.pdf"}

	cmd := send(v, "/ask what is this?")

	assert.Nil(t, cmd)
	assert.Contains(t, entryContents(v), "No model selected.")
}

func TestView_Ask_StreamsEveryChunk(t *testing.T) {
	v, session := newTestView(t)
	v.SetModel("m")
	session.docs.doc = &domain.Document{Name: "report.pdf"}
	var gotQuestion, gotModel string
	session.docs.AnswerFunc = func(
		_ context.Context, question, model string, onFragment driving.FragmentHandler,
	) (string, error) {
		gotQuestion, gotModel = question, model
		onFragment(driving.Fragment{ChunkIndex: 0, Text: "first"})
		onFragment(driving.Fragment{ChunkIndex: 1, Text: "second"})
		return "firstsecond", nil
	}

	cmd := send(v, "/ask summarise it")
	require.NotNil(t, cmd)
	drain(v)

	assert.Equal(t, "summarise it", gotQuestion)
	assert.Equal(t, "m", gotModel)
	entries := v.Transcript().Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "you · report.pdf", entries[0].Label)
	assert.Equal(t, "firstsecond", entries[1].Content)
	assert.Equal(t, "m · pdf", entries[1].Label)
}

func TestView_Ask_StreamSeparatesChunks(t *testing.T) {
	v, _ := newTestView(t)
	v.Transcript().StartReply("m")
	v.chunk = -1

	v.handleToken(messages.TokenReceived{Kind: messages.ReplyDocument, Chunk: 0, Text: "a"})
	v.handleToken(messages.TokenReceived{Kind: messages.ReplyDocument, Chunk: 0, Text: "b"})
	v.handleToken(messages.TokenReceived{Kind: messages.ReplyDocument, Chunk: 1, Text: "c"})
	v.Transcript().FinishReply("")

	assert.Equal(t, "ab\n\nc", lastEntry(v).Content)
}

func TestView_Ask_ChunkFailure(t *testing.T) {
	v, session := newTestView(t)
	v.SetModel("m")
	session.docs.doc = &domain.Document{Name: "report.pdf"}
	session.docs.AnswerFunc = func(
		_ context.Context, _, _ string, onFragment driving.FragmentHandler,
	) (string, error) {
		onFragment(driving.Fragment{ChunkIndex: 0, Text: "ok"})
		return "", domain.NewInferenceError(1, errors.New("timeout"))
	}

	send(v, "/ask q")
	drain(v)

	assert.Contains(t, entryContents(v), "inference failed on chunk 2: timeout")
}

func TestView_SlashCommands_Usage(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"/open", "usage: /open"},
		{"/ask", "usage: /ask"},
		{"/frobnicate now", "unknown command /frobnicate"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			v, _ := newTestView(t)

			cmd := send(v, tt.input)

			assert.Nil(t, cmd)
			require.NotNil(t, lastEntry(v).Notice)
			assert.Contains(t, lastEntry(v).Notice.Text, tt.want)
		})
	}
}

func TestView_SlashCommands_Navigate(t *testing.T) {
	tests := []struct {
		input string
		want  tea.Msg
	}{
		{"/models", messages.ViewChanged{View: messages.ViewPicker}},
		{"/text", messages.ViewChanged{View: messages.ViewPreview}},
		{"/help", messages.ViewChanged{View: messages.ViewHelp}},
		{"/quit", tea.QuitMsg{}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			v, _ := newTestView(t)

			cmd := send(v, tt.input)

			require.NotNil(t, cmd)
			assert.Equal(t, tt.want, cmd())
		})
	}
}

func TestView_Keys_Navigate(t *testing.T) {
	tests := []struct {
		name string
		key  tea.KeyMsg
		want messages.ViewType
	}{
		{"models", tea.KeyMsg{Type: tea.KeyCtrlP}, messages.ViewPicker},
		{"preview", tea.KeyMsg{Type: tea.KeyCtrlT}, messages.ViewPreview},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, _ := newTestView(t)

			_, cmd := v.Update(tt.key)

			require.NotNil(t, cmd)
			assert.Equal(t, messages.ViewChanged{View: tt.want}, cmd())
		})
	}
}

func TestView_Open_StartsLoad(t *testing.T) {
	v, _ := newTestView(t)

	cmd := send(v, "/open "+writePDF(t, "text"))

	require.NotNil(t, cmd)
	assert.Equal(t, status.StateWorking, v.StatusBar().State())
}

func TestView_LoadDocument(t *testing.T) {
	v, _ := newTestView(t)
	v.WithPreviewChars(5)
	path := writePDF(t, "Hello from the PDF")

	msg := v.LoadDocument(path)()

	loaded, ok := msg.(messages.DocumentLoaded)
	require.True(t, ok)
	require.NoError(t, loaded.Err)
	assert.Equal(t, "report.pdf", loaded.Document.Name)
	assert.Equal(t, 1, loaded.Chunks)

	_, cmd := v.Update(loaded)

	assert.Nil(t, cmd, "no watcher configured")
	assert.Equal(t, "report.pdf", v.StatusBar().Document())
	contents := entryContents(v)
	require.Len(t, contents, 2)
	assert.True(t, strings.HasPrefix(contents[0], "Loaded report.pdf: 1 pages, 1 chunks."))
	assert.Equal(t, "Hello", contents[1])
	assert.Equal(t, domain.RoleSystem, lastEntry(v).Role)
}

func TestView_LoadDocument_MissingFile(t *testing.T) {
	v, _ := newTestView(t)

	msg := v.LoadDocument(filepath.Join(t.TempDir(), "missing.pdf"))()

	loaded, ok := msg.(messages.DocumentLoaded)
	require.True(t, ok)
	assert.ErrorIs(t, loaded.Err, domain.ErrExtraction)

	v.Update(loaded)
	assert.Equal(t, status.StateError, v.StatusBar().State())
}

func TestView_LoadDocument_ExtractionError(t *testing.T) {
	v, session := newTestView(t)
	session.docs.LoadErr = errors.New("text extraction failed: encrypted")

	msg := v.LoadDocument(writePDF(t, "x"))()
	v.Update(msg)

	assert.Contains(t, entryContents(v), "text extraction failed: encrypted")
	assert.Equal(t, "", v.StatusBar().Document())
}

func TestView_Watch_ReloadsOnChange(t *testing.T) {
	session := &mockSession{conv: &mockConversation{}, docs: &mockDocumentQA{}}
	watcher := &mockWatcher{changes: make(chan struct{}, 1)}
	v := NewView(nil, nil, session, watcher, "notty")
	v.SetDimensions(120, 40)
	path := writePDF(t, "v1")

	_, cmd := v.Update(v.LoadDocument(path)())

	require.NotNil(t, cmd)
	assert.Equal(t, path, v.WatchedPath())
	assert.Equal(t, []string{path}, watcher.paths)

	watcher.changes <- struct{}{}
	assert.Equal(t, messages.DocumentChanged{Path: path}, cmd())

	_, cmd = v.Update(messages.DocumentChanged{Path: path})
	require.NotNil(t, cmd)
	assert.Contains(t, entryContents(v), "report.pdf changed on disk, reloading.")

	// Reloading the same path keeps the existing watch.
	_, cmd = v.Update(v.LoadDocument(path)())
	assert.Nil(t, cmd)
	assert.Len(t, watcher.paths, 1)
}

func TestView_Watch_IgnoresStalePath(t *testing.T) {
	v, _ := newTestView(t)

	_, cmd := v.Update(messages.DocumentChanged{Path: "/old.pdf"})

	assert.Nil(t, cmd)
}

func TestView_Watch_Error(t *testing.T) {
	session := &mockSession{conv: &mockConversation{}, docs: &mockDocumentQA{}}
	watcher := &mockWatcher{err: errors.New("too many open files")}
	v := NewView(nil, nil, session, watcher, "notty")
	v.SetDimensions(120, 40)

	_, cmd := v.Update(v.LoadDocument(writePDF(t, "x"))())

	assert.Nil(t, cmd)
	assert.Equal(t, "", v.WatchedPath())
	assert.Contains(t, entryContents(v), "Not watching report.pdf: too many open files")
}

func TestView_StopWatching(t *testing.T) {
	session := &mockSession{conv: &mockConversation{}, docs: &mockDocumentQA{}}
	watcher := &mockWatcher{changes: make(chan struct{})}
	v := NewView(nil, nil, session, watcher, "notty")
	v.Update(v.LoadDocument(writePDF(t, "x"))())

	v.StopWatching()

	assert.Equal(t, "", v.WatchedPath())
	assert.Nil(t, v.stopWatch)
}

func TestView_ModelSelected(t *testing.T) {
	v, _ := newTestView(t)

	v.Update(messages.ModelSelected{Model: "mistral"})

	assert.Equal(t, "mistral", v.Model())
	assert.Equal(t, "mistral", v.StatusBar().Model())
}

func TestView_ErrorOccurred(t *testing.T) {
	v, _ := newTestView(t)

	v.Update(messages.ErrorOccurred{Err: domain.ErrModelUnavailable})

	assert.Contains(t, entryContents(v), "You have not pulled any model yet.")
	assert.Equal(t, status.StateWarning, v.StatusBar().State())
}

func TestView_TypingGoesToInput(t *testing.T) {
	v, _ := newTestView(t)

	v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("abc")})

	assert.Equal(t, "abc", v.Input().Value())
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	tests := []struct {
		in   string
		want string
	}{
		{"~/docs/a.pdf", filepath.Join(home, "docs/a.pdf")},
		{"~", home},
		{"/abs/a.pdf", "/abs/a.pdf"},
		{"rel/a.pdf", "rel/a.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, expandHome(tt.in))
		})
	}
}
