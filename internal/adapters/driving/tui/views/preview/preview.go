// Package preview provides the extracted text view for the TUI.
package preview

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/pdfchat/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/pdfchat/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/pdfchat/internal/core/domain"
)

// View shows the text extracted from the loaded PDF, either whole or split
// into the chunks sent to the model.
type View struct {
	styles *styles.Styles

	document     *domain.Document
	chunks       []domain.Chunk
	showChunks   bool
	lines        []string
	scrollOffset int
	width        int
	height       int
	ready        bool
}

// NewView creates a new preview view.
func NewView(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles: s,
		width:  80,
		height: 24,
	}
}

// SetDocument replaces the shown document.
func (v *View) SetDocument(doc *domain.Document, chunks []domain.Chunk) {
	v.document = doc
	v.chunks = chunks
	v.scrollOffset = 0
	v.wrapContent()
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update handles messages for the preview view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)
	}

	return v, nil
}

// handleKeyMsg handles key presses.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.scrollOffset > 0 {
			v.scrollOffset--
		}
	case "down", "j":
		if v.scrollOffset < v.maxScrollOffset() {
			v.scrollOffset++
		}
	case "pgup", "ctrl+u":
		v.scrollOffset -= v.visibleLines()
		if v.scrollOffset < 0 {
			v.scrollOffset = 0
		}
	case "pgdown", "ctrl+d":
		v.scrollOffset += v.visibleLines()
		if v.scrollOffset > v.maxScrollOffset() {
			v.scrollOffset = v.maxScrollOffset()
		}
	case "home", "g":
		v.scrollOffset = 0
	case "end", "G":
		v.scrollOffset = v.maxScrollOffset()
	case "tab":
		v.showChunks = !v.showChunks
		v.scrollOffset = 0
		v.wrapContent()
	case "esc", "q":
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewChat}
		}
	}

	return v, nil
}

// wrapContent wraps the text to fit the view width.
func (v *View) wrapContent() {
	v.lines = nil
	if v.document == nil {
		return
	}

	contentWidth := v.width - 4
	if contentWidth < 20 {
		contentWidth = 20
	}

	if !v.showChunks {
		v.lines = wrap(v.document.Text, contentWidth)
		return
	}
	for _, c := range v.chunks {
		v.lines = append(v.lines, fmt.Sprintf("── chunk %d of %d ──", c.Position+1, len(v.chunks)))
		v.lines = append(v.lines, wrap(c.Content, contentWidth)...)
		v.lines = append(v.lines, "")
	}
}

// wrap splits text into lines no wider than width runes.
func wrap(text string, width int) []string {
	if text == "" {
		return nil
	}
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		runes := []rune(line)
		for len(runes) > width {
			lines = append(lines, string(runes[:width]))
			runes = runes[width:]
		}
		lines = append(lines, string(runes))
	}
	return lines
}

// visibleLines returns the number of lines that can be displayed.
func (v *View) visibleLines() int {
	// Title, separator, position and help.
	available := v.height - 6
	if available < 1 {
		available = 1
	}
	return available
}

// maxScrollOffset returns the maximum scroll offset.
func (v *View) maxScrollOffset() int {
	maxOffset := len(v.lines) - v.visibleLines()
	if maxOffset < 0 {
		maxOffset = 0
	}
	return maxOffset
}

// View renders the preview.
func (v *View) View() string {
	var b strings.Builder

	title := "Extracted Text"
	if v.document != nil {
		title = fmt.Sprintf("Extracted Text · %s · %d pages · %d chunks",
			v.document.Name, v.document.Pages, len(v.chunks))
	}
	b.WriteString(v.styles.Title.Render(title))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", minInt(v.width-4, 60)))
	b.WriteString("\n\n")

	if len(v.lines) == 0 {
		if v.document == nil {
			b.WriteString(v.styles.Muted.Render("No PDF loaded. Use /open <file> in the chat."))
		} else {
			b.WriteString(v.styles.Muted.Render("(No text extracted)"))
		}
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	}

	visible := v.visibleLines()
	for i := v.scrollOffset; i < len(v.lines) && i < v.scrollOffset+visible; i++ {
		b.WriteString(v.styles.Normal.Render(v.lines[i]))
		b.WriteString("\n")
	}

	if len(v.lines) > visible {
		b.WriteString("\n")
		percentage := 0
		if v.maxScrollOffset() > 0 {
			percentage = v.scrollOffset * 100 / v.maxScrollOffset()
		}
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [%d%%] Line %d-%d of %d",
			percentage,
			v.scrollOffset+1,
			minInt(v.scrollOffset+visible, len(v.lines)),
			len(v.lines))))
	}

	b.WriteString("\n\n")
	b.WriteString(v.renderHelp())

	return b.String()
}

// renderHelp renders the help footer.
func (v *View) renderHelp() string {
	mode := "chunks"
	if v.showChunks {
		mode = "full text"
	}
	return v.styles.Help.Render("[↑/↓/PgUp/PgDn] scroll  [g/G] top/bottom  [tab] " + mode + "  [esc] back")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.wrapContent()
}

// Document returns the shown document.
func (v *View) Document() *domain.Document {
	return v.document
}

// ShowingChunks reports whether chunk boundaries are shown.
func (v *View) ShowingChunks() bool {
	return v.showChunks
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
