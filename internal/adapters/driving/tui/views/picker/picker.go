// Package picker provides the model selection view for the TUI.
package picker

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/pdfchat/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/pdfchat/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/pdfchat/internal/core/domain"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driving"
)

// View lists the locally available models.
type View struct {
	styles   *styles.Styles
	models   []string
	current  string
	selected int
	loading  bool
	notice   domain.Notice
	width    int
	height   int
	ready    bool
}

// NewView creates a new picker view.
func NewView(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &View{
		styles:  s,
		loading: true,
		width:   80,
		height:  24,
	}
}

// Init initialises the picker view.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update handles messages for the picker view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.ModelsDiscovered:
		v.SetDiscovery(msg.Discovery, msg.Err)
		return v, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if v.selected > 0 {
				v.selected--
			}
			return v, nil

		case "down", "j":
			if v.selected < len(v.models)-1 {
				v.selected++
			}
			return v, nil

		case "enter":
			if len(v.models) == 0 {
				return v, nil
			}
			model := v.models[v.selected]
			v.current = model
			return v, func() tea.Msg {
				return messages.ModelSelected{Model: model}
			}

		case "r":
			v.loading = true
			v.notice = domain.Notice{}
			return v, func() tea.Msg {
				return messages.RefreshModels{}
			}

		case "esc":
			if v.current == "" {
				return v, nil
			}
			return v, func() tea.Msg {
				return messages.ViewChanged{View: messages.ViewChat}
			}

		case "q":
			return v, tea.Quit
		}
	}

	return v, nil
}

// View renders the picker.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Chat with PDF"))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Discovering models..."))
		b.WriteString("\n")

	case v.notice.Text != "":
		style := v.styles.Error
		if v.notice.Level == domain.NoticeWarning {
			style = v.styles.Warning
		}
		b.WriteString(style.Render("⚠️  " + v.notice.Text))
		b.WriteString("\n")
		if v.notice.Hint != "" {
			b.WriteString(v.styles.Muted.Render(v.notice.Hint))
			b.WriteString("\n")
		}

	default:
		b.WriteString(v.styles.Normal.Render("Pick a model available locally on your system ↓"))
		b.WriteString("\n\n")
		for i, model := range v.models {
			cursor := "  "
			style := v.styles.Normal
			if i == v.selected {
				cursor = "> "
				style = v.styles.Selected
			}
			line := cursor + style.Render(model)
			if model == v.current {
				line += v.styles.Muted.Render(" (current)")
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	footer := "[j/k] Navigate  [Enter] Select  [r] Refresh  [q] Quit"
	if v.current != "" {
		footer += "  [Esc] Back"
	}
	b.WriteString(v.styles.Help.Render(footer))

	return b.String()
}

// SetDiscovery replaces the listed models. An empty list shows the
// not-pulled warning rather than an error.
func (v *View) SetDiscovery(d driving.Discovery, err error) {
	v.loading = false
	v.models = d.Models
	v.notice = domain.Notice{}

	switch {
	case err != nil:
		v.notice = domain.Describe(err)
	case d.Unavailable || len(d.Models) == 0:
		v.notice = domain.Describe(domain.ErrModelUnavailable)
	}

	v.selected = 0
	for i, m := range v.models {
		if m == v.current {
			v.selected = i
		}
	}
}

// SetCurrent marks the model already in use.
func (v *View) SetCurrent(model string) {
	v.current = model
	for i, m := range v.models {
		if m == model {
			v.selected = i
		}
	}
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Models returns the listed models.
func (v *View) Models() []string {
	return v.models
}

// Selected returns the currently selected index.
func (v *View) Selected() int {
	return v.selected
}
