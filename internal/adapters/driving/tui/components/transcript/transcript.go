// Package transcript renders the conversation as a scrollable markdown log.
package transcript

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/custodia-labs/pdfchat/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/pdfchat/internal/core/domain"
)

// Avatars shown next to each author.
const (
	UserAvatar      = "😎"
	AssistantAvatar = "🤖"
	DocumentAvatar  = "📄"
	NoticeAvatar    = "⚠️"
)

// Entry is one rendered block of the transcript.
type Entry struct {
	Role    domain.Role
	Label   string
	Content string
	Notice  *domain.Notice
}

// Transcript is a viewport over the rendered conversation.
type Transcript struct {
	styles   *styles.Styles
	viewport viewport.Model
	renderer *glamour.TermRenderer
	style    string
	entries  []Entry
	pending  *Entry
	width    int
}

// New creates a transcript. An empty markdownStyle detects the terminal background.
func New(s *styles.Styles, markdownStyle string) *Transcript {
	if s == nil {
		s = styles.DefaultStyles()
	}
	t := &Transcript{
		styles:   s,
		viewport: viewport.New(80, 20),
		style:    markdownStyle,
		width:    80,
	}
	t.renderer = newRenderer(markdownStyle, t.width)
	return t
}

func newRenderer(style string, width int) *glamour.TermRenderer {
	wrap := width - 4
	if wrap < 20 {
		wrap = 20
	}
	styleOpt := glamour.WithAutoStyle()
	if style != "" {
		styleOpt = glamour.WithStandardStyle(style)
	}
	r, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(wrap))
	if err != nil {
		return nil
	}
	return r
}

// Init initialises the transcript.
func (t *Transcript) Init() tea.Cmd {
	return nil
}

// Update forwards scrolling input to the viewport.
func (t *Transcript) Update(msg tea.Msg) (*Transcript, tea.Cmd) {
	var cmd tea.Cmd
	t.viewport, cmd = t.viewport.Update(msg)
	return t, cmd
}

// View renders the visible part of the transcript.
func (t *Transcript) View() string {
	return t.viewport.View()
}

// SetSize resizes the viewport and rewraps the markdown.
func (t *Transcript) SetSize(width, height int) {
	if height < 1 {
		height = 1
	}
	t.viewport.Width = width
	t.viewport.Height = height
	if width != t.width {
		t.width = width
		t.renderer = newRenderer(t.style, width)
	}
	t.refresh()
}

// Add appends a completed message.
func (t *Transcript) Add(role domain.Role, label, content string) {
	t.entries = append(t.entries, Entry{Role: role, Label: label, Content: content})
	t.refresh()
}

// AddNotice appends a warning or error block.
func (t *Transcript) AddNotice(n domain.Notice) {
	if n.Text == "" {
		return
	}
	t.entries = append(t.entries, Entry{Notice: &n})
	t.refresh()
}

// StartReply opens a streaming assistant block.
func (t *Transcript) StartReply(label string) {
	t.pending = &Entry{Role: domain.RoleAssistant, Label: label}
	t.refresh()
}

// AppendToken adds streamed text to the open reply.
func (t *Transcript) AppendToken(text string) {
	if t.pending == nil {
		t.StartReply("")
	}
	t.pending.Content += text
	t.refresh()
}

// FinishReply closes the open reply. A non-empty text replaces what was streamed.
func (t *Transcript) FinishReply(text string) {
	if t.pending == nil {
		return
	}
	entry := *t.pending
	t.pending = nil
	if text != "" {
		entry.Content = text
	}
	if entry.Content != "" {
		t.entries = append(t.entries, entry)
	}
	t.refresh()
}

// Streaming reports whether a reply is open.
func (t *Transcript) Streaming() bool {
	return t.pending != nil
}

// Entries returns the completed blocks.
func (t *Transcript) Entries() []Entry {
	return t.entries
}

// Reset clears the transcript.
func (t *Transcript) Reset() {
	t.entries = nil
	t.pending = nil
	t.refresh()
}

func (t *Transcript) refresh() {
	var b strings.Builder
	for _, e := range t.entries {
		b.WriteString(t.renderEntry(e, true))
	}
	if t.pending != nil {
		// Partial markdown renders poorly, so the open reply stays plain.
		b.WriteString(t.renderEntry(*t.pending, false))
	}
	t.viewport.SetContent(b.String())
	t.viewport.GotoBottom()
}

func (t *Transcript) renderEntry(e Entry, markdown bool) string {
	if e.Notice != nil {
		avatar := NoticeAvatar
		if e.Notice.Level == domain.NoticeInfo {
			avatar = "•"
		}
		out := avatar + " " + t.styles.Notice(e.Notice.Level).Render(e.Notice.Text) + "\n"
		if e.Notice.Hint != "" {
			out += "   " + t.styles.Muted.Render(e.Notice.Hint) + "\n"
		}
		return out + "\n"
	}

	avatar, fallback := AssistantAvatar, "assistant"
	switch e.Role {
	case domain.RoleUser:
		avatar, fallback = UserAvatar, "you"
	case domain.RoleSystem:
		// Extracted PDF text is shown verbatim.
		avatar, fallback = DocumentAvatar, "document"
		markdown = false
	}
	header := avatar + " " + t.styles.Label(e.Role).Render(labelOr(e.Label, fallback))

	body := e.Content
	if markdown && t.renderer != nil {
		if rendered, err := t.renderer.Render(e.Content); err == nil {
			body = strings.Trim(rendered, "\n")
		}
	} else {
		body = t.styles.Normal.Width(t.width - 4).Render(body)
	}
	return header + "\n" + body + "\n\n"
}

func labelOr(label, fallback string) string {
	if label == "" {
		return fallback
	}
	return label
}
