// Package chat provides the conversation view for the TUI: free-form chat
// with the selected model and questions about the loaded PDF.
package chat

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/pdfchat/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/pdfchat/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/pdfchat/internal/adapters/driving/tui/components/transcript"
	"github.com/custodia-labs/pdfchat/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/pdfchat/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/pdfchat/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/pdfchat/internal/core/domain"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driven"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driving"
)

// DefaultPreviewChars is how much extracted text is echoed after a load.
const DefaultPreviewChars = 1000

// NoModelPlaceholder prompts for a model before anything can be sent.
const NoModelPlaceholder = "Pick a model first (ctrl+p)"

// streamBuffer bounds how many fragments may queue ahead of the renderer.
const streamBuffer = 64

// View is the chat view with transcript, prompt and status bar.
type View struct {
	styles     *styles.Styles
	keymap     *keymap.KeyMap
	input      *input.PromptInput
	transcript *transcript.Transcript
	statusbar  *status.Bar

	session driving.Session
	watcher driven.FileWatcher
	ctx     context.Context

	model        string
	previewChars int

	// Reply in progress.
	stream <-chan tea.Msg
	cancel context.CancelFunc
	chunk  int

	// Watched document.
	watchedPath string
	stopWatch   context.CancelFunc
	changes     <-chan struct{}

	width  int
	height int
	ready  bool
}

// NewView creates a new chat view. markdownStyle selects the glamour style
// for replies; empty detects the terminal background.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	session driving.Session,
	watcher driven.FileWatcher,
	markdownStyle string,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:       s,
		keymap:       km,
		input:        input.NewPromptInput(s),
		transcript:   transcript.New(s, markdownStyle),
		statusbar:    status.NewBar(s, km),
		session:      session,
		watcher:      watcher,
		ctx:          context.Background(),
		previewChars: DefaultPreviewChars,
		chunk:        -1,
		width:        80,
		height:       24,
	}
}

// WithContext sets the context every request derives from.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// WithPreviewChars sets how much extracted text is echoed after a load.
func (v *View) WithPreviewChars(n int) *View {
	if n > 0 {
		v.previewChars = n
	}
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		v.transcript, cmd = v.transcript.Update(msg)
		return v, cmd

	case spinner.TickMsg:
		var cmd tea.Cmd
		v.statusbar, cmd = v.statusbar.Update(msg)
		return v, cmd

	case messages.ModelSelected:
		v.SetModel(msg.Model)
		return v, nil

	case messages.TokenReceived:
		v.handleToken(msg)
		return v, waitForStream(v.stream)

	case messages.ReplyCompleted:
		v.handleReplyCompleted(msg)
		return v, nil

	case messages.DocumentLoaded:
		return v, v.handleDocumentLoaded(msg)

	case messages.DocumentChanged:
		if msg.Path != v.watchedPath {
			return v, nil
		}
		v.transcript.AddNotice(domain.Notice{
			Level: domain.NoticeInfo,
			Text:  filepath.Base(msg.Path) + " changed on disk, reloading.",
		})
		return v, tea.Batch(v.LoadDocument(msg.Path), waitForChange(v.changes, msg.Path))

	case messages.ErrorOccurred:
		v.showError(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// handleKeyMsg processes keyboard input.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keymap.Cancel):
		if v.Busy() {
			v.cancel()
		}
		return v, nil

	case key.Matches(msg, v.keymap.ScrollUp), key.Matches(msg, v.keymap.ScrollDown):
		var cmd tea.Cmd
		v.transcript, cmd = v.transcript.Update(msg)
		return v, cmd

	case key.Matches(msg, v.keymap.Models):
		return v, changeView(messages.ViewPicker)

	case key.Matches(msg, v.keymap.Preview):
		return v, changeView(messages.ViewPreview)

	case key.Matches(msg, v.keymap.Send):
		if v.Busy() {
			return v, nil
		}
		text := strings.TrimSpace(v.input.Value())
		if text == "" {
			return v, nil
		}
		v.input.Reset()
		return v, v.submit(text)
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// submit dispatches a prompt or slash command.
func (v *View) submit(text string) tea.Cmd {
	if !strings.HasPrefix(text, "/") {
		return v.chat(text)
	}

	name, arg, _ := strings.Cut(text, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "/open", "/load":
		if arg == "" {
			v.showError(fmt.Errorf("%w: usage: /open <file.pdf>", domain.ErrInvalidInput))
			return nil
		}
		return tea.Batch(v.statusbar.StartWorking("Extracting text..."), v.LoadDocument(expandHome(arg)))
	case "/ask":
		if arg == "" {
			v.showError(fmt.Errorf("%w: usage: /ask <question about the PDF>", domain.ErrInvalidInput))
			return nil
		}
		return v.askDocument(arg)
	case "/models":
		return changeView(messages.ViewPicker)
	case "/text":
		return changeView(messages.ViewPreview)
	case "/help":
		return changeView(messages.ViewHelp)
	case "/quit", "/exit":
		return tea.Quit
	default:
		v.showError(fmt.Errorf("%w: unknown command %s", domain.ErrInvalidInput, name))
		return nil
	}
}

// chat sends a free-form turn with the whole conversation history.
func (v *View) chat(prompt string) tea.Cmd {
	if v.model == "" {
		v.showError(domain.ErrNoModelSelected)
		return nil
	}
	model := v.model
	conv := v.session.Conversation()

	v.transcript.Add(domain.RoleUser, "", prompt)
	v.transcript.StartReply(model)

	return v.startStream(messages.ReplyChat, "Model working...", func(ctx context.Context, emit func(tea.Msg)) (string, error) {
		return conv.Ask(ctx, prompt, model, func(token string) {
			emit(messages.TokenReceived{Kind: messages.ReplyChat, Chunk: -1, Text: token})
		})
	})
}

// askDocument asks question against every chunk of the loaded PDF.
func (v *View) askDocument(question string) tea.Cmd {
	if v.model == "" {
		v.showError(domain.ErrNoModelSelected)
		return nil
	}
	docs := v.session.Documents()
	if docs.Document() == nil {
		v.showError(domain.ErrNoDocument)
		return nil
	}
	model := v.model

	v.transcript.Add(domain.RoleUser, "you · "+docs.Document().Name, question)
	v.transcript.StartReply(model + " · pdf")

	return v.startStream(messages.ReplyDocument, "Generating response from the model...", func(ctx context.Context, emit func(tea.Msg)) (string, error) {
		return docs.Answer(ctx, question, model, func(f driving.Fragment) {
			emit(messages.TokenReceived{Kind: messages.ReplyDocument, Chunk: f.ChunkIndex, Text: f.Text})
		})
	})
}

// startStream runs fn on its own goroutine and feeds its fragments back into
// the update loop through a channel. The final message is always ReplyCompleted.
func (v *View) startStream(
	kind messages.ReplyKind,
	label string,
	fn func(ctx context.Context, emit func(tea.Msg)) (string, error),
) tea.Cmd {
	ctx, cancel := context.WithCancel(v.ctx)
	ch := make(chan tea.Msg, streamBuffer)
	v.stream = ch
	v.cancel = cancel
	v.chunk = -1

	go func() {
		defer close(ch)
		text, err := fn(ctx, func(msg tea.Msg) {
			select {
			case ch <- msg:
			case <-ctx.Done():
			}
		})
		ch <- messages.ReplyCompleted{Kind: kind, Text: text, Err: err}
	}()

	return tea.Batch(v.statusbar.StartWorking(label), waitForStream(ch))
}

func (v *View) handleToken(msg messages.TokenReceived) {
	if msg.Kind == messages.ReplyDocument && msg.Chunk != v.chunk {
		if v.chunk >= 0 {
			v.transcript.AppendToken("\n\n")
		}
		v.chunk = msg.Chunk
	}
	v.transcript.AppendToken(msg.Text)
}

func (v *View) handleReplyCompleted(msg messages.ReplyCompleted) {
	if v.cancel != nil {
		v.cancel()
	}
	v.cancel = nil
	v.stream = nil
	v.chunk = -1

	switch {
	case msg.Err == nil:
		v.transcript.FinishReply(msg.Text)
		v.statusbar.Clear()
	case errors.Is(msg.Err, context.Canceled):
		v.transcript.FinishReply("")
		v.transcript.AddNotice(domain.Notice{Level: domain.NoticeWarning, Text: "Reply cancelled."})
		v.statusbar.Clear()
	default:
		v.transcript.FinishReply("")
		v.showError(msg.Err)
	}
}

// LoadDocument returns a command that extracts and chunks the PDF at path.
func (v *View) LoadDocument(path string) tea.Cmd {
	docs := v.session.Documents()
	ctx := v.ctx
	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return messages.DocumentLoaded{Path: path, Err: fmt.Errorf("%w: %w", domain.ErrExtraction, err)}
		}
		defer f.Close()

		doc, err := docs.Load(ctx, filepath.Base(path), f)
		if err != nil {
			return messages.DocumentLoaded{Path: path, Err: err}
		}
		return messages.DocumentLoaded{Path: path, Document: doc, Chunks: len(docs.Chunks())}
	}
}

func (v *View) handleDocumentLoaded(msg messages.DocumentLoaded) tea.Cmd {
	if !v.Busy() {
		v.statusbar.Clear()
	}
	if msg.Err != nil {
		v.showError(msg.Err)
		return nil
	}

	v.statusbar.SetDocument(msg.Document.Name, msg.Chunks)
	v.transcript.AddNotice(domain.Notice{
		Level: domain.NoticeInfo,
		Text: fmt.Sprintf("Loaded %s: %d pages, %d chunks. Ask about it with /ask <question>.",
			msg.Document.Name, msg.Document.Pages, msg.Chunks),
	})
	if excerpt := msg.Document.Preview(v.previewChars); excerpt != "" {
		v.transcript.Add(domain.RoleSystem, "Extracted Text", excerpt)
	}

	return v.watch(msg.Path)
}

// watch follows path for changes, replacing any earlier watch.
func (v *View) watch(path string) tea.Cmd {
	if v.watcher == nil || path == v.watchedPath {
		return nil
	}
	v.StopWatching()

	ctx, cancel := context.WithCancel(v.ctx)
	changes, err := v.watcher.Watch(ctx, path)
	if err != nil {
		cancel()
		v.transcript.AddNotice(domain.Notice{
			Level: domain.NoticeWarning,
			Text:  "Not watching " + filepath.Base(path) + ": " + err.Error(),
		})
		return nil
	}

	v.watchedPath = path
	v.stopWatch = cancel
	v.changes = changes
	return waitForChange(changes, path)
}

// StopWatching ends the current document watch.
func (v *View) StopWatching() {
	if v.stopWatch != nil {
		v.stopWatch()
	}
	v.stopWatch = nil
	v.changes = nil
	v.watchedPath = ""
}

func (v *View) showError(err error) {
	n := domain.Describe(err)
	v.transcript.AddNotice(n)
	if n.Level == domain.NoticeWarning {
		v.statusbar.SetState(status.StateWarning)
	} else {
		v.statusbar.SetState(status.StateError)
	}
	v.statusbar.SetMessage(n.Text)
}

func waitForStream(ch <-chan tea.Msg) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

func waitForChange(changes <-chan struct{}, path string) tea.Cmd {
	if changes == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-changes; !ok {
			return nil
		}
		return messages.DocumentChanged{Path: path}
	}
}

func changeView(view messages.ViewType) tea.Cmd {
	return func() tea.Msg {
		return messages.ViewChanged{View: view}
	}
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

// View renders the chat view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	title := v.styles.Title.Render("Chat with PDF")
	if doc := v.session.Documents().Document(); doc != nil {
		title += v.styles.Muted.Render("  " + doc.Name)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		v.transcript.View(),
		v.input.View(),
		v.statusbar.View(),
	)
}

// SetDimensions lays out the transcript above the prompt and status bar.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	// Title, bordered prompt and status bar.
	const chrome = 1 + 3 + 1
	v.transcript.SetSize(width, height-chrome)
	v.input.SetWidth(width)
	v.statusbar.SetWidth(width)
}

// SetModel sets the model used for new requests.
func (v *View) SetModel(model string) {
	v.model = model
	v.statusbar.SetModel(model)
	if model == "" {
		v.input.SetPlaceholder(NoModelPlaceholder)
	} else {
		v.input.SetPlaceholder(input.DefaultPlaceholder)
	}
}

// Model returns the model used for new requests.
func (v *View) Model() string {
	return v.model
}

// Busy reports whether a reply is streaming.
func (v *View) Busy() bool {
	return v.cancel != nil
}

// Transcript returns the rendered conversation.
func (v *View) Transcript() *transcript.Transcript {
	return v.transcript
}

// StatusBar returns the status bar.
func (v *View) StatusBar() *status.Bar {
	return v.statusbar
}

// Input returns the prompt input.
func (v *View) Input() *input.PromptInput {
	return v.input
}

// WatchedPath returns the document path being watched, if any.
func (v *View) WatchedPath() string {
	return v.watchedPath
}
