package components

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/morrisclay/cds-console/internal/tui"
)

// HelpModel renders the key bindings of a view, short or full.
type HelpModel struct {
	help     help.Model
	keyMap   help.KeyMap
	showFull bool
}

// NewHelp creates a new help component.
func NewHelp(keyMap help.KeyMap) HelpModel {
	h := help.New()
	h.Styles.ShortKey = lipgloss.NewStyle().Foreground(tui.ColorPrimary).Bold(true)
	h.Styles.ShortDesc = lipgloss.NewStyle().Foreground(tui.ColorMuted)
	h.Styles.ShortSeparator = lipgloss.NewStyle().Foreground(tui.ColorBorder)
	h.Styles.FullKey = lipgloss.NewStyle().Foreground(tui.ColorPrimary).Bold(true)
	h.Styles.FullDesc = lipgloss.NewStyle().Foreground(tui.ColorMuted)
	h.Styles.FullSeparator = lipgloss.NewStyle().Foreground(tui.ColorBorder)

	return HelpModel{
		help:   h,
		keyMap: keyMap,
	}
}

// Update toggles the full view on "?" and follows the window width.
func (m HelpModel) Update(msg tea.Msg) (HelpModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, key.NewBinding(key.WithKeys("?"))) {
			m.showFull = !m.showFull
		}
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
	}
	return m, nil
}

// View returns the short or full help depending on the toggle.
func (m HelpModel) View() string {
	if m.showFull {
		return m.help.FullHelpView(m.keyMap.FullHelp())
	}
	return m.help.ShortHelpView(m.keyMap.ShortHelp())
}

// SetWidth sets the help width.
func (m *HelpModel) SetWidth(width int) {
	m.help.Width = width
}

// TextareaKeyMap defines keybindings for textarea components.
type TextareaKeyMap struct {
	Submit key.Binding
	Cancel key.Binding
	Help   key.Binding
}

// ShortHelp implements help.KeyMap.
func (k TextareaKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Cancel, k.Help}
}

// FullHelp implements help.KeyMap.
func (k TextareaKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Submit, k.Cancel, k.Help},
	}
}

// DefaultTextareaKeyMap returns the default textarea keybindings.
func DefaultTextareaKeyMap() TextareaKeyMap {
	return TextareaKeyMap{
		Submit: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("ctrl+d", "submit"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
	}
}
