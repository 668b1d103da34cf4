package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/pdfchat/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/pdfchat/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/pdfchat/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/pdfchat/internal/adapters/driving/tui/views/chat"
	"github.com/custodia-labs/pdfchat/internal/adapters/driving/tui/views/picker"
	"github.com/custodia-labs/pdfchat/internal/adapters/driving/tui/views/preview"
	"github.com/custodia-labs/pdfchat/internal/core/domain"
	"github.com/custodia-labs/pdfchat/internal/logger"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// opts are the startup choices.
	opts Options

	// ctx is the context for cancellation.
	ctx context.Context

	// styles holds the TUI styles.
	styles *styles.Styles

	// keymap holds the keybindings.
	keymap *keymap.KeyMap

	// pickerView lists the installed models.
	pickerView *picker.View

	// chatView holds the conversation and document questions.
	chatView *chat.View

	// previewView shows the extracted document text.
	previewView *preview.View

	// currentView tracks which view is active.
	currentView messages.ViewType

	// returnView is where help goes back to.
	returnView messages.ViewType

	// err holds the last error that occurred.
	err error

	// width and height are terminal dimensions.
	width  int
	height int

	// ready indicates if the app has initialised.
	ready bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports, opts Options) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	chatView := chat.NewView(s, km, ports.Session, ports.Watcher, opts.MarkdownStyle).
		WithPreviewChars(opts.PreviewChars)
	chatView.SetModel(opts.Model)

	pickerView := picker.NewView(s)
	pickerView.SetCurrent(opts.Model)

	start := messages.ViewPicker
	if opts.Model != "" {
		start = messages.ViewChat
	}

	return &App{
		ports:       ports,
		opts:        opts,
		ctx:         context.Background(),
		styles:      s,
		keymap:      km,
		pickerView:  pickerView,
		chatView:    chatView,
		previewView: preview.NewView(s),
		currentView: start,
		returnView:  start,
	}, nil
}

// WithContext sets the context for the app.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.chatView.WithContext(ctx)
	return a
}

// Init implements tea.Model.
// It runs initial commands when the program starts.
func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnterAltScreen,
		tea.SetWindowTitle("pdfchat - Chat with PDF"),
		a.discoverModels(),
		a.chatView.Init(),
	}
	if a.opts.DocumentPath != "" {
		cmds = append(cmds, a.chatView.LoadDocument(a.opts.DocumentPath))
	}
	return tea.Batch(cmds...)
}

// discoverModels returns a command that lists the installed models.
func (a *App) discoverModels() tea.Cmd {
	models := a.ports.Models
	ctx := a.ctx
	return func() tea.Msg {
		d, err := models.Discover(ctx)
		return messages.ModelsDiscovered{Discovery: d, Err: err}
	}
}

// Update implements tea.Model.
// It handles messages and updates the model state.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.handleKeyMsg(msg)

	case messages.ModelsDiscovered:
		return a, a.handleModelsDiscovered(msg)

	case messages.RefreshModels:
		return a, a.discoverModels()

	case messages.ModelSelected:
		a.chatView.SetModel(msg.Model)
		a.pickerView.SetCurrent(msg.Model)
		a.currentView = messages.ViewChat
		return a, a.chatView.Input().Focus()

	case messages.ViewChanged:
		a.switchTo(msg.View)
		return a, nil

	// A reply keeps streaming while another view is shown.
	case messages.TokenReceived, messages.ReplyCompleted, messages.DocumentChanged, spinner.TickMsg:
		a.chatView, cmd = a.chatView.Update(msg)
		return a, cmd

	case messages.DocumentLoaded:
		if msg.Err != nil {
			a.err = msg.Err
		}
		a.chatView, cmd = a.chatView.Update(msg)
		if a.currentView == messages.ViewPreview {
			a.refreshPreview()
		}
		return a, cmd

	case messages.ErrorOccurred:
		a.err = msg.Err
		a.chatView, cmd = a.chatView.Update(msg)
		return a, cmd

	case messages.Quit:
		a.chatView.StopWatching()
		return a, tea.Quit
	}

	return a, a.forward(msg)
}

// handleKeyMsg applies global keys and forwards the rest to the active view.
func (a *App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, a.keymap.Quit) {
		a.chatView.StopWatching()
		return a, tea.Quit
	}

	if key.Matches(msg, a.keymap.Help) {
		if a.currentView == messages.ViewHelp {
			a.currentView = a.returnView
		} else {
			a.switchTo(messages.ViewHelp)
		}
		return a, nil
	}

	if a.currentView == messages.ViewHelp {
		if msg.Type == tea.KeyEsc || msg.String() == "q" {
			a.currentView = a.returnView
		}
		return a, nil
	}

	return a, a.forward(msg)
}

// handleModelsDiscovered updates the picker and decides whether the
// preferred model can be used.
func (a *App) handleModelsDiscovered(msg messages.ModelsDiscovered) tea.Cmd {
	a.pickerView.SetDiscovery(msg.Discovery, msg.Err)
	if msg.Err != nil {
		a.err = msg.Err
	}

	model := a.chatView.Model()
	if model == "" || msg.Err != nil {
		return nil
	}
	for _, m := range msg.Discovery.Models {
		if m == model {
			return nil
		}
	}

	// The preferred model is not installed.
	a.chatView.SetModel("")
	a.pickerView.SetCurrent("")
	a.currentView = messages.ViewPicker
	return func() tea.Msg {
		return messages.ErrorOccurred{
			Err: fmt.Errorf("%w: model %q is not installed", domain.ErrInvalidConfiguration, model),
		}
	}
}

// switchTo activates a view.
func (a *App) switchTo(view messages.ViewType) {
	if view == messages.ViewHelp && a.currentView != messages.ViewHelp {
		a.returnView = a.currentView
	}
	if view == messages.ViewPreview {
		a.refreshPreview()
	}
	a.currentView = view
}

func (a *App) refreshPreview() {
	docs := a.ports.Session.Documents()
	a.previewView.SetDocument(docs.Document(), docs.Chunks())
}

// forward sends msg to the active view.
func (a *App) forward(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch a.currentView {
	case messages.ViewPicker:
		a.pickerView, cmd = a.pickerView.Update(msg)
	case messages.ViewChat:
		a.chatView, cmd = a.chatView.Update(msg)
	case messages.ViewPreview:
		a.previewView, cmd = a.previewView.Update(msg)
	case messages.ViewHelp:
		// Help is static.
	}
	return cmd
}

// View implements tea.Model.
// It renders the current view as a string.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewPicker:
		return a.pickerView.View()
	case messages.ViewChat:
		return a.chatView.View()
	case messages.ViewPreview:
		return a.previewView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	default:
		return a.chatView.View()
	}
}

// viewHelp renders the help view.
func (a *App) viewHelp() string {
	var b strings.Builder

	b.WriteString(a.styles.Title.Render("Help"))
	b.WriteString("\n\n")

	for _, group := range a.keymap.FullHelp() {
		for _, binding := range group {
			h := binding.Help()
			b.WriteString(fmt.Sprintf("  %-10s %s\n", h.Key, h.Desc))
		}
		b.WriteString("\n")
	}

	b.WriteString(a.styles.Title.Render("Commands"))
	b.WriteString("\n\n")
	for _, c := range [][2]string{
		{"/open <file>", "Load a PDF and show its first characters"},
		{"/ask <question>", "Ask about every chunk of the loaded PDF"},
		{"/models", "Pick another model"},
		{"/text", "Show the extracted text"},
		{"/help", "Show this help"},
		{"/quit", "Exit"},
	} {
		b.WriteString(fmt.Sprintf("  %-17s %s\n", c[0], c[1]))
	}
	b.WriteString("  (anything else) Chat with the model\n\n")

	b.WriteString(a.styles.Help.Render("[esc] back"))
	return b.String()
}

// Run starts the TUI application.
func (a *App) Run() error {
	defer a.chatView.StopWatching()

	// Log lines would tear the alternate screen.
	logger.SetQuiet(true)
	defer logger.SetQuiet(false)

	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Model returns the model used for new requests.
func (a *App) Model() string {
	return a.chatView.Model()
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.pickerView.SetDimensions(width, height)
	a.chatView.SetDimensions(width, height)
	a.previewView.SetDimensions(width, height)
}
